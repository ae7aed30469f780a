package metaAPI

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"PojClient/internal/config"
	"PojClient/internal/errs"
	"PojClient/internal/logging"
	"PojClient/internal/models"
)

// Fetcher is the transport the metadata clients sit on.
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

type Client struct {
	Fetcher   Fetcher
	Endpoints config.Endpoints
}

func New(fetcher Fetcher, endpoints config.Endpoints) *Client {
	return &Client{Fetcher: fetcher, Endpoints: endpoints}
}

var hexDigest = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// FetchJSON GETs url and decodes it into v. Unknown fields are ignored.
func (c *Client) FetchJSON(ctx context.Context, url string, v any) error {
	data, err := c.Fetcher.FetchBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Manifestf("decoding %s: %v", url, err)
	}
	return nil
}

func (c *Client) GetVersionIndex(ctx context.Context) (*models.VersionIndex, error) {
	var index models.VersionIndex
	if err := c.FetchJSON(ctx, c.Endpoints.VersionIndex, &index); err != nil {
		return nil, err
	}
	for i, v := range index.Versions {
		if v.ID == "" || v.URL == "" {
			return nil, errs.Manifestf("version index entry %d: missing id or url", i)
		}
	}
	logging.GlobalLogger.Infof("Fetched version index: %d versions", len(index.Versions))
	return &index, nil
}

// FindVersion looks up id in the index. "release" and "snapshot" resolve
// through the latest pointers.
func FindVersion(index *models.VersionIndex, id string) (models.VersionIndexEntry, error) {
	switch id {
	case "release", "latest":
		id = index.Latest.Release
	case "snapshot":
		id = index.Latest.Snapshot
	}
	for _, v := range index.Versions {
		if v.ID == id {
			return v, nil
		}
	}
	return models.VersionIndexEntry{}, errs.Manifestf("version %q not found in index", id)
}

// GetVersionManifest fetches a base game manifest, which must carry the
// client artifact and the asset index pointer.
func (c *Client) GetVersionManifest(ctx context.Context, url string) (*models.VersionManifest, error) {
	var mani models.VersionManifest
	if err := c.FetchJSON(ctx, url, &mani); err != nil {
		return nil, err
	}
	if err := validateCommon(&mani, url); err != nil {
		return nil, err
	}
	if mani.Downloads == nil || mani.Downloads.Client == nil || mani.Downloads.Client.URL == "" || mani.Downloads.Client.Sha1 == "" {
		return nil, errs.Manifestf("%s: missing downloads.client", url)
	}
	if mani.AssetIndex == nil || mani.AssetIndex.ID == "" || mani.AssetIndex.URL == "" {
		return nil, errs.Manifestf("%s: missing assetIndex", url)
	}
	logging.GlobalLogger.Infof("Fetched version manifest %s (%s, %d libraries)", mani.ID, mani.Type, len(mani.Libraries))
	return &mani, nil
}

func validateCommon(mani *models.VersionManifest, url string) error {
	if mani.ID == "" {
		return errs.Manifestf("%s: missing id", url)
	}
	if mani.MainClass == "" {
		return errs.Manifestf("%s: missing mainClass", url)
	}
	return nil
}

func (c *Client) GetAssetIndex(ctx context.Context, ref models.AssetIndexRef) (*models.AssetIndex, error) {
	var index models.AssetIndex
	if err := c.FetchJSON(ctx, ref.URL, &index); err != nil {
		return nil, err
	}
	if index.Objects == nil {
		return nil, errs.Manifestf("asset index %s: missing objects", ref.ID)
	}
	for name, obj := range index.Objects {
		if !hexDigest.MatchString(obj.Hash) {
			return nil, errs.Manifestf("asset index %s: object %q has invalid hash %q", ref.ID, name, obj.Hash)
		}
		if obj.Size < 0 {
			return nil, errs.Manifestf("asset index %s: object %q has negative size", ref.ID, name)
		}
	}
	logging.GlobalLogger.Infof("Fetched asset index %s: %d objects", ref.ID, len(index.Objects))
	return &index, nil
}

// IsDigest reports whether s looks like a hex SHA-1.
func IsDigest(s string) bool {
	return hexDigest.MatchString(strings.TrimSpace(s))
}

func describe(loader Modloader, gameVersion, loaderVersion string) string {
	return fmt.Sprintf("%s %s for %s", loader, loaderVersion, gameVersion)
}
