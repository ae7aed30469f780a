package planner

import (
	"path/filepath"
	"sort"
	"strings"

	"PojClient/internal/errs"
	"PojClient/internal/logging"
	"PojClient/internal/models"
	"PojClient/pkg/bundle"
	"PojClient/pkg/coordinate"
	"PojClient/pkg/metaAPI"
	"PojClient/pkg/utils"
)

// ResolveLibrary turns a manifest entry into its tagged variant. ok is false
// for entries with nothing to download (native-only vanilla entries).
func ResolveLibrary(lib models.Library) (src LibrarySource, ok bool, err error) {
	if lib.Downloads != nil && lib.Downloads.Artifact != nil {
		a := lib.Downloads.Artifact
		if a.Path == "" || a.URL == "" || a.Sha1 == "" {
			return LibrarySource{}, false, errs.Manifestf("library %q: artifact needs path, url and sha1", lib.Name)
		}
		if !filepath.IsLocal(filepath.FromSlash(a.Path)) {
			return LibrarySource{}, false, errs.Manifestf("library %q: artifact path %q escapes the libraries dir", lib.Name, a.Path)
		}
		return LibrarySource{Kind: LibraryVanilla, Name: lib.Name, Path: a.Path, URL: a.URL, Digest: a.Sha1}, true, nil
	}

	if lib.URL != "" {
		path, err := coordinate.ToPath(lib.Name)
		if err != nil {
			return LibrarySource{}, false, err
		}
		return LibrarySource{Kind: LibraryMod, Name: lib.Name, Path: path, URL: utils.JoinURL(lib.URL, path), Repository: lib.URL}, true, nil
	}

	if lib.Downloads != nil {
		return LibrarySource{}, false, nil
	}
	return LibrarySource{}, false, errs.Manifestf("library %q: neither downloads.artifact nor url", lib.Name)
}

// Resolve yields where the library goes, where it comes from and how it is
// checked. digestURL is set instead of digest for mod libraries.
func (s LibrarySource) Resolve() (path, url, digest, digestURL string) {
	switch s.Kind {
	case LibraryMod:
		return s.Path, s.URL, "", s.URL + ".sha1"
	default:
		return s.Path, s.URL, s.Digest, ""
	}
}

// IsGraphicsLibrary reports whether the graphics shim replaces this library.
func (s LibrarySource) IsGraphicsLibrary() bool {
	return s.Kind == LibraryVanilla && strings.Contains(s.Path, "lwjgl")
}

func ClientPath(gameDir, id string) string {
	return filepath.Join(gameDir, "versions", id, id+".jar")
}

func GraphicsShimPath(userHome string) string {
	return filepath.Join(userHome, "lwjgl3", filepath.Base(bundle.GraphicsShim))
}

func AssetObjectPath(assetsDir, hash string) string {
	return filepath.Join(assetsDir, "objects", hash[:2], hash)
}

// Build turns the base manifest, the optional modloader manifest and the
// asset index into task groups.
func Build(base *models.VersionManifest, mod *models.VersionManifest, assets *models.AssetIndex, layout Layout) (*InstallPlan, error) {
	if base == nil {
		return nil, errs.Manifestf("base manifest is required")
	}
	if base.Downloads == nil || base.Downloads.Client == nil {
		return nil, errs.Manifestf("%s: missing downloads.client", base.ID)
	}
	if base.AssetIndex == nil {
		return nil, errs.Manifestf("%s: missing assetIndex", base.ID)
	}
	if assets == nil {
		return nil, errs.Manifestf("%s: asset index %s not loaded", base.ID, base.AssetIndex.ID)
	}

	assetsDir := filepath.Join(layout.GameDir, "assets")
	plan := &InstallPlan{
		VersionID:    base.ID,
		VersionType:  base.Type,
		MainClass:    base.MainClass,
		AssetIndexID: base.AssetIndex.ID,
		GameDir:      layout.GameDir,
		AssetsDir:    assetsDir,
	}
	if mod != nil && mod.MainClass != "" {
		plan.MainClass = mod.MainClass
	}

	client := base.Downloads.Client
	plan.Client = Group{Name: "client", Tasks: []*Task{{
		Kind:   KindClient,
		Name:   "client " + base.ID,
		Path:   ClientPath(layout.GameDir, base.ID),
		URL:    client.URL,
		Digest: client.Sha1,
	}}}

	seen := make(map[string]bool)
	var err error
	plan.BaseLibraries, err = libraryGroup("base-libraries", base, layout, seen)
	if err != nil {
		return nil, err
	}
	plan.ModLibraries = Group{Name: "mod-libraries"}
	if mod != nil {
		plan.ModLibraries, err = libraryGroup("mod-libraries", mod, layout, seen)
		if err != nil {
			return nil, err
		}
	}

	plan.GraphicsShim = Group{Name: "graphics-shim", Tasks: []*Task{{
		Kind: KindGraphicsShim,
		Name: bundle.GraphicsShim,
		Path: GraphicsShimPath(layout.UserHome),
		Blob: bundle.GraphicsShim,
	}}}

	plan.Assets, err = assetGroup(base, assets, layout, assetsDir)
	if err != nil {
		return nil, err
	}

	logging.GlobalLogger.Infof("Planned %s: client, %d base libraries, %d mod libraries, %d asset tasks",
		base.ID, len(plan.BaseLibraries.Tasks), len(plan.ModLibraries.Tasks), len(plan.Assets.Tasks))
	return plan, nil
}

func libraryGroup(name string, mani *models.VersionManifest, layout Layout, seen map[string]bool) (Group, error) {
	group := Group{Name: name}
	for _, lib := range mani.Libraries {
		src, ok, err := ResolveLibrary(lib)
		if err != nil {
			return Group{}, err
		}
		if !ok {
			logging.GlobalLogger.Debugf("Skipping %s: no artifact", lib.Name)
			continue
		}
		path, url, digest, digestURL := src.Resolve()
		target := filepath.Join(layout.GameDir, "libraries", filepath.FromSlash(path))
		if seen[target] {
			logging.GlobalLogger.Debugf("Skipping duplicate library %s", lib.Name)
			continue
		}
		seen[target] = true

		group.Tasks = append(group.Tasks, &Task{
			Kind:       KindLibrary,
			Name:       src.Name,
			Path:       target,
			URL:        url,
			Digest:     digest,
			DigestURL:  digestURL,
			VerifyOnly: src.IsGraphicsLibrary(),
		})
	}
	return group, nil
}

func assetGroup(base *models.VersionManifest, assets *models.AssetIndex, layout Layout, assetsDir string) (Group, error) {
	group := Group{Name: "assets", Pooled: true}

	group.Tasks = append(group.Tasks, &Task{
		Kind:   KindAssetIndex,
		Name:   "asset index " + base.AssetIndex.ID,
		Path:   filepath.Join(assetsDir, "indexes", base.AssetIndex.ID+".json"),
		URL:    base.AssetIndex.URL,
		Digest: base.AssetIndex.Sha1,
	})

	names := make([]string, 0, len(assets.Objects))
	for name := range assets.Objects {
		names = append(names, name)
	}
	sort.Strings(names)

	// Objects are content addressed: names sharing a digest share a file.
	planned := make(map[string]bool, len(names))
	for _, name := range names {
		hash := strings.ToLower(assets.Objects[name].Hash)
		if !metaAPI.IsDigest(hash) {
			return Group{}, errs.Manifestf("asset %q: invalid hash %q", name, hash)
		}
		if planned[hash] {
			continue
		}
		planned[hash] = true
		group.Tasks = append(group.Tasks, &Task{
			Kind:   KindAssetObject,
			Name:   name,
			Path:   AssetObjectPath(assetsDir, hash),
			URL:    utils.JoinURL(layout.AssetObjectsURL, hash[:2]+"/"+hash),
			Digest: hash,
		})
	}

	for _, blob := range bundle.ConfigBlobs {
		group.Tasks = append(group.Tasks, &Task{
			Kind: KindBundledConfig,
			Name: blob.Name,
			Path: filepath.Join(layout.GameRoot, filepath.FromSlash(blob.Target)),
			Blob: blob.Name,
		})
	}
	return group, nil
}
