package metaAPI

import (
	"context"
	"net/url"
	"strings"

	"PojClient/internal/errs"
	"PojClient/internal/logging"
	"PojClient/internal/models"

	"golang.org/x/mod/semver"
)

type Modloader string

const (
	None     Modloader = "none"
	Fabric   Modloader = "fabric"
	Quilt    Modloader = "quilt"
	Forge    Modloader = "forge"
	NeoForge Modloader = "neoforge"
)

// ParseModloader accepts the loaders the installer can resolve. Known but
// unimplemented loaders fail with ErrUnsupportedModloader.
func ParseModloader(s string) (Modloader, error) {
	switch Modloader(strings.ToLower(strings.TrimSpace(s))) {
	case "", None, "vanilla":
		return None, nil
	case Fabric:
		return Fabric, nil
	case Quilt:
		return Quilt, nil
	default:
		return "", errs.UnsupportedModloader(s)
	}
}

func (c *Client) loaderBase(loader Modloader) (string, error) {
	switch loader {
	case Fabric:
		return c.Endpoints.FabricMeta, nil
	case Quilt:
		return c.Endpoints.QuiltMeta, nil
	default:
		return "", errs.UnsupportedModloader(string(loader))
	}
}

func (c *Client) GetLoaderList(ctx context.Context, loader Modloader) ([]models.LoaderVersion, error) {
	base, err := c.loaderBase(loader)
	if err != nil {
		return nil, err
	}
	var list []models.LoaderVersion
	if err := c.FetchJSON(ctx, base, &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errs.Manifestf("%s loader list is empty", loader)
	}
	for i, v := range list {
		if v.Version == "" {
			return nil, errs.Manifestf("%s loader list entry %d: missing version", loader, i)
		}
	}
	logging.GlobalLogger.Infof("Fetched %s loader list: %d versions", loader, len(list))
	return list, nil
}

// LatestLoader picks the loader to install: for Fabric the first stable
// entry, for Quilt the highest release by semver. Falls back to the first entry.
func LatestLoader(loader Modloader, list []models.LoaderVersion) (models.LoaderVersion, error) {
	if len(list) == 0 {
		return models.LoaderVersion{}, errs.Manifestf("%s loader list is empty", loader)
	}
	if loader == Fabric {
		for _, v := range list {
			if v.Stable != nil && *v.Stable {
				return v, nil
			}
		}
		return list[0], nil
	}

	var best *models.LoaderVersion
	for i := range list {
		sv := "v" + list[i].Version
		if !semver.IsValid(sv) || semver.Prerelease(sv) != "" {
			continue
		}
		if best == nil || semver.Compare(sv, "v"+best.Version) > 0 {
			best = &list[i]
		}
	}
	if best == nil {
		return list[0], nil
	}
	return *best, nil
}

// GetLoaderManifest fetches the per-(loader, game version) profile. Its
// libraries overlay the base manifest and its mainClass supersedes the base one.
func (c *Client) GetLoaderManifest(ctx context.Context, loader Modloader, gameVersion, loaderVersion string) (*models.VersionManifest, error) {
	base, err := c.loaderBase(loader)
	if err != nil {
		return nil, err
	}
	u := base + "/" + url.PathEscape(gameVersion) + "/" + url.PathEscape(loaderVersion) + "/profile/json"

	var mani models.VersionManifest
	if err := c.FetchJSON(ctx, u, &mani); err != nil {
		return nil, err
	}
	if err := validateCommon(&mani, u); err != nil {
		return nil, err
	}
	logging.GlobalLogger.Infof("Fetched modloader manifest %s (%d libraries)", describe(loader, gameVersion, loaderVersion), len(mani.Libraries))
	return &mani, nil
}
