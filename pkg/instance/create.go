package instance

import (
	"context"
	"fmt"
	"path/filepath"

	"PojClient/internal/config"
	"PojClient/internal/errs"
	"PojClient/internal/logging"
	"PojClient/internal/models"
	"PojClient/pkg/bundle"
	"PojClient/pkg/downloader"
	"PojClient/pkg/executor"
	"PojClient/pkg/launch"
	"PojClient/pkg/metaAPI"
	"PojClient/pkg/modsync"
	"PojClient/pkg/planner"
)

func NewInstaller(cfg config.PojClientConfig, client *downloader.Client, provider bundle.Provider) *Installer {
	return &Installer{
		Meta:     metaAPI.New(client, cfg.Endpoints),
		Executor: executor.New(client, provider, cfg),
		Syncer:   modsync.New(client, cfg),
		Layout: planner.Layout{
			GameDir:         cfg.Paths.GameDir,
			GameRoot:        cfg.Paths.GameRoot,
			UserHome:        cfg.Paths.UserHome,
			AssetObjectsURL: cfg.Endpoints.AssetObjects,
		},
		Logger: logging.GlobalLogger,
	}
}

func (i *Installer) logger() *logging.Logger {
	if i.Logger == nil {
		return logging.GlobalLogger
	}
	return i.Logger
}

// Resolve fetches the base manifest, the optional modloader manifest and the
// asset index for req.
func (i *Installer) Resolve(ctx context.Context, req models.InstallRequest) (*models.VersionManifest, *models.VersionManifest, *models.AssetIndex, error) {
	loader, err := metaAPI.ParseModloader(req.Modloader)
	if err != nil {
		return nil, nil, nil, err
	}

	index, err := i.Meta.GetVersionIndex(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	entry, err := metaAPI.FindVersion(index, req.Version)
	if err != nil {
		return nil, nil, nil, err
	}
	base, err := i.Meta.GetVersionManifest(ctx, entry.URL)
	if err != nil {
		return nil, nil, nil, err
	}

	var mod *models.VersionManifest
	if loader != metaAPI.None {
		loaderVersion := req.Loader
		if loaderVersion == "" {
			list, err := i.Meta.GetLoaderList(ctx, loader)
			if err != nil {
				return nil, nil, nil, err
			}
			latest, err := metaAPI.LatestLoader(loader, list)
			if err != nil {
				return nil, nil, nil, err
			}
			loaderVersion = latest.Version
		}
		mod, err = i.Meta.GetLoaderManifest(ctx, loader, base.ID, loaderVersion)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	assets, err := i.Meta.GetAssetIndex(ctx, *base.AssetIndex)
	if err != nil {
		return nil, nil, nil, err
	}
	return base, mod, assets, nil
}

// Create installs req and persists its descriptor once every group verified.
// progress may be nil.
func (i *Installer) Create(ctx context.Context, req models.InstallRequest, progress *executor.Progress) (*Descriptor, error) {
	if err := ValidateName(req.Name); err != nil {
		return nil, err
	}
	log := i.logger().WithField("instance", req.Name)
	log.Infof("Creating instance for %s (modloader %q)", req.Version, req.Modloader)

	base, mod, assets, err := i.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	layout, err := absLayout(i.Layout)
	if err != nil {
		return nil, err
	}
	plan, err := planner.Build(base, mod, assets, layout)
	if err != nil {
		return nil, err
	}

	exec := *i.Executor
	if progress != nil {
		exec.Progress = progress
	} else {
		exec.Progress = executor.NewProgress()
	}
	res, err := exec.Run(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("installing %s: %w", req.Name, err)
	}

	d := &Descriptor{
		VersionName:    plan.VersionID,
		VersionType:    plan.VersionType,
		MainEntryPoint: plan.MainClass,
		Classpath:      res.Classpath,
		GameDir:        plan.GameDir,
		AssetIndexID:   plan.AssetIndexID,
		AssetsDir:      plan.AssetsDir,
	}
	if err := Save(d, req.Name, layout.GameDir); err != nil {
		return nil, err
	}
	log.Infof("Instance installed, %d downloads", res.Downloads())
	return d, nil
}

// Launch syncs mods unless skipped, then hands the argument vector to sink.
func (i *Installer) Launch(ctx context.Context, name string, acct Account, sink launch.Sink, skipModSync bool) ([]string, error) {
	d, err := Load(name, i.Layout.GameDir)
	if err != nil {
		return nil, err
	}
	if !skipModSync && i.Syncer != nil {
		if _, err := i.Syncer.Sync(ctx, d.VersionName); err != nil {
			return nil, fmt.Errorf("syncing mods for %s: %w", name, err)
		}
	}

	args := d.LaunchArgs(acct)
	if sink != nil {
		if err := sink.Launch(ctx, d.GameDir, args); err != nil {
			return args, err
		}
	}
	return args, nil
}

// absLayout anchors every root at the working directory, so descriptors
// stay valid when launched from elsewhere.
func absLayout(l planner.Layout) (planner.Layout, error) {
	for _, root := range []*string{&l.GameDir, &l.GameRoot, &l.UserHome} {
		abs, err := filepath.Abs(*root)
		if err != nil {
			return l, errs.IO(*root, err)
		}
		*root = abs
	}
	return l, nil
}
