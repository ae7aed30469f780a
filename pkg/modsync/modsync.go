// Package modsync keeps the per-version mod directory in line with the
// remote mod manifest.
package modsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"PojClient/internal/config"
	"PojClient/internal/errs"
	"PojClient/internal/logging"
	"PojClient/internal/models"
	"PojClient/pkg/utils"

	"golang.org/x/sync/errgroup"
)

func New(client Fetcher, cfg config.PojClientConfig) *Syncer {
	return &Syncer{
		Client:      client,
		ManifestURL: cfg.Endpoints.ModManifest,
		GameRoot:    cfg.Paths.GameRoot,
		CachePath:   filepath.Join(cfg.Paths.UserHome, "mods.json"),
		Concurrency: cfg.AssetConcurrency,
		Logger:      logging.GlobalLogger,
	}
}

func (s *Syncer) logger() *logging.Logger {
	if s.Logger == nil {
		return logging.GlobalLogger
	}
	return s.Logger
}

// ModsDir is where the jars for version live.
func (s *Syncer) ModsDir(version string) string {
	return filepath.Join(s.GameRoot, "mods", version)
}

// Sync downloads every entry for version that is new, changed or missing on
// disk. The cache is replaced only when all downloads succeeded, so a failed
// sync is retried in full next time.
func (s *Syncer) Sync(ctx context.Context, version string) (*Report, error) {
	raw, err := s.Client.FetchBytes(ctx, s.ManifestURL)
	if err != nil {
		return nil, err
	}
	var remote models.ModManifest
	if err := json.Unmarshal(raw, &remote); err != nil {
		return nil, errs.Manifestf("decoding mod manifest %s: %v", s.ManifestURL, err)
	}

	entries, ok := remote[version]
	if !ok {
		s.logger().Warnf("Mod manifest has no entry for %s", version)
	}
	if err := validate(version, entries); err != nil {
		return nil, err
	}

	cache := s.loadCache()
	cached := make(map[string]models.ModEntry)
	for _, entry := range cache[version] {
		cached[entry.Slug] = entry
	}
	dir := s.ModsDir(version)
	dirMissing := !isDir(dir)

	report := &Report{Version: version}
	var pending []models.ModEntry
	for _, entry := range entries {
		old, known := cached[entry.Slug]
		target := filepath.Join(dir, entry.Slug+".jar")
		if dirMissing || !known || old.Version != entry.Version || !utils.Exists(target) {
			pending = append(pending, entry)
		} else {
			report.UpToDate = append(report.UpToDate, entry.Slug)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if s.Concurrency > 0 {
		g.SetLimit(s.Concurrency)
	}
	for _, entry := range pending {
		g.Go(func() error {
			log := s.logger().WithFields(logging.Fields{"artifact": entry.Slug, "version": entry.Version})
			log.Infof("Downloading mod from %s", entry.DownloadLink)
			if _, err := s.Client.Download(gctx, entry.DownloadLink, filepath.Join(dir, entry.Slug+".jar")); err != nil {
				log.WithField("cause", err).Error("Mod download failed")
				return err
			}
			mu.Lock()
			report.Downloaded = append(report.Downloaded, entry.Slug)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	sort.Strings(report.Downloaded)

	// Only this version was applied; other versions keep their cached entries.
	if ok {
		cache[version] = entries
	} else {
		delete(cache, version)
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return report, fmt.Errorf("encoding mod cache: %w", err)
	}
	if err := utils.WriteFileAtomic(s.CachePath, data, 0o644); err != nil {
		return report, errs.IO(s.CachePath, err)
	}
	s.logger().Infof("Mods for %s synced: %d downloaded, %d up to date", version, len(report.Downloaded), len(report.UpToDate))
	return report, nil
}

// loadCache returns the entries that were last applied, per game version.
// A missing or unreadable cache counts as empty.
func (s *Syncer) loadCache() models.ModManifest {
	cache := make(models.ModManifest)
	data, err := os.ReadFile(s.CachePath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger().Warnf("Ignoring mod cache %s: %v", s.CachePath, err)
		}
		return cache
	}
	if err := json.Unmarshal(data, &cache); err != nil || cache == nil {
		s.logger().Warnf("Ignoring corrupt mod cache %s: %v", s.CachePath, err)
		return make(models.ModManifest)
	}
	return cache
}

func validate(version string, entries []models.ModEntry) error {
	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		switch {
		case entry.Slug == "" || entry.DownloadLink == "":
			return errs.Manifestf("mods for %s, entry %d: slug and download_link are required", version, i)
		case strings.ContainsAny(entry.Slug, `/\`) || !filepath.IsLocal(entry.Slug):
			return errs.Manifestf("mods for %s: slug %q is not a plain name", version, entry.Slug)
		case seen[entry.Slug]:
			return errs.Manifestf("mods for %s: duplicate slug %q", version, entry.Slug)
		}
		seen[entry.Slug] = true
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
