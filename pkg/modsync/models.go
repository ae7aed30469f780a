package modsync

import (
	"context"

	"PojClient/internal/logging"
)

type Fetcher interface {
	Download(ctx context.Context, url, destPath string) (int64, error)
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

type Syncer struct {
	Client      Fetcher
	ManifestURL string
	// GameRoot receives mods/<version>/<slug>.jar.
	GameRoot string
	// CachePath records, per game version, the entries last fully applied.
	CachePath   string
	Concurrency int
	Logger      *logging.Logger
}

// Report lists the slugs a sync touched.
type Report struct {
	Version    string
	Downloaded []string
	UpToDate   []string
}
