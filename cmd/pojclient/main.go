package main

import (
	"os"
	"path/filepath"

	"PojClient/internal/config"
	"PojClient/internal/logging"
	"PojClient/pkg/bundle"
	"PojClient/pkg/downloader"
	"PojClient/pkg/instance"

	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"
)

type options struct {
	Debug      bool
	ConfigPath string
	BundleDir  string
}

func main() {
	opts := options{}

	c := cli.NewApp()
	c.Name = "pojclient"
	c.Usage = "Install, update and launch game client instances"
	c.Version = "0.1.0"

	c.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:        "debug",
			Aliases:     []string{"d"},
			Usage:       "Enable debug-level logging",
			Destination: &opts.Debug,
			EnvVars:     []string{"DEBUG"},
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to a JSON config file",
			Destination: &opts.ConfigPath,
			EnvVars:     []string{"POJ_CONFIG"},
		},
		&cli.StringFlag{
			Name:        "bundle-dir",
			Usage:       "Directory holding the bundled blobs (defaults to <user home>/bundle)",
			Destination: &opts.BundleDir,
			EnvVars:     []string{"POJ_BUNDLE_DIR"},
		},
	}

	c.Before = func(c *cli.Context) error {
		if opts.Debug {
			logging.GlobalLogger.SetLevel(logrus.DebugLevel)
		}
		cfg, err := config.Load(opts.ConfigPath)
		if err != nil {
			return err
		}
		config.Config = cfg
		downloader.DefaultPool = downloader.NewPool(cfg.AssetConcurrency)
		if opts.BundleDir == "" {
			opts.BundleDir = filepath.Join(cfg.Paths.UserHome, "bundle")
		}
		return nil
	}

	c.Commands = []*cli.Command{
		versionsCommand(),
		loadersCommand(),
		installCommand(&opts),
		listCommand(),
		argsCommand(),
		launchCommand(&opts),
		syncModsCommand(),
		deleteCommand(),
		serveCommand(&opts),
		initConfigCommand(&opts),
	}

	if err := c.Run(os.Args); err != nil {
		logging.GlobalLogger.Errorf("%v", err)
		os.Exit(1)
	}
}

func newInstaller(opts *options) *instance.Installer {
	client := downloader.NewClient(config.Config)
	return instance.NewInstaller(config.Config, client, bundle.NewFSProvider(os.DirFS(opts.BundleDir)))
}
