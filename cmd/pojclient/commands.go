package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PojClient/internal/config"
	"PojClient/internal/logging"
	"PojClient/internal/models"
	"PojClient/pkg/downloader"
	"PojClient/pkg/executor"
	"PojClient/pkg/instance"
	"PojClient/pkg/launch"
	"PojClient/pkg/metaAPI"
	"PojClient/pkg/modsync"
	"PojClient/pkg/server"
	"PojClient/pkg/tasks"

	cli "github.com/urfave/cli/v2"
)

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}

var nameFlag = &cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Instance name", Required: true}

func accountFlags() []cli.Flag {
	return []cli.Flag{
		nameFlag,
		&cli.StringFlag{Name: "username", Value: "Player", Usage: "Account name"},
		&cli.StringFlag{Name: "uuid", Value: "00000000-0000-0000-0000-000000000000", Usage: "Account UUID"},
		&cli.StringFlag{Name: "access-token", Value: "0", Usage: "Session access token", EnvVars: []string{"POJ_ACCESS_TOKEN"}},
		&cli.StringFlag{Name: "user-type", Value: "msa", Usage: "Account type"},
	}
}

func accountFrom(c *cli.Context) instance.Account {
	return instance.Account{
		Username:    c.String("username"),
		UUID:        c.String("uuid"),
		AccessToken: c.String("access-token"),
		UserType:    c.String("user-type"),
	}
}

func metaClient() *metaAPI.Client {
	return metaAPI.New(downloader.NewClient(config.Config), config.Config.Endpoints)
}

func versionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "versions",
		Usage: "List game versions from the version index",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Value: "release", Usage: "Version type to show (release, snapshot, all)"},
		},
		Action: func(c *cli.Context) error {
			index, err := metaClient().GetVersionIndex(c.Context)
			if err != nil {
				return err
			}
			for _, v := range index.Versions {
				if c.String("type") == "all" || v.Type == c.String("type") {
					fmt.Printf("%s\t%s\t%s\n", v.ID, v.Type, v.ReleaseTime)
				}
			}
			return nil
		},
	}
}

func loadersCommand() *cli.Command {
	return &cli.Command{
		Name:      "loaders",
		Usage:     "List modloader versions",
		ArgsUsage: "<fabric|quilt>",
		Action: func(c *cli.Context) error {
			loader, err := metaAPI.ParseModloader(c.Args().First())
			if err != nil {
				return err
			}
			if loader == metaAPI.None {
				return fmt.Errorf("name a modloader")
			}
			list, err := metaClient().GetLoaderList(c.Context, loader)
			if err != nil {
				return err
			}
			latest, _ := metaAPI.LatestLoader(loader, list)
			for _, v := range list {
				marker := ""
				if v.Version == latest.Version {
					marker = "\t(default)"
				}
				fmt.Printf("%s%s\n", v.Version, marker)
			}
			return nil
		},
	}
}

func installCommand(opts *options) *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Install or repair an instance",
		Flags: []cli.Flag{
			nameFlag,
			&cli.StringFlag{Name: "version", Value: "release", Usage: "Game version, or release/snapshot for the latest"},
			&cli.StringFlag{Name: "modloader", Aliases: []string{"m"}, Value: "fabric", Usage: "none, fabric or quilt"},
			&cli.StringFlag{Name: "loader-version", Usage: "Pin a modloader version"},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signalContext(c)
			defer stop()

			progress := executor.NewProgress()
			done := make(chan struct{})
			go reportProgress(progress, done)
			defer close(done)

			req := models.InstallRequest{
				Name:      c.String("name"),
				Version:   c.String("version"),
				Modloader: c.String("modloader"),
				Loader:    c.String("loader-version"),
			}
			d, err := newInstaller(opts).Create(ctx, req, progress)
			if err != nil {
				return err
			}
			fmt.Printf("Installed %s (%s) as %q\n", d.VersionName, d.MainEntryPoint, req.Name)
			return nil
		},
	}
}

func reportProgress(progress *executor.Progress, done <-chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s := progress.Snapshot()
			logging.GlobalLogger.Infof("Progress: %d/%d tasks, %d downloads, %d retries, %d bytes",
				s.VerifiedTasks+s.SkippedTasks, s.TotalTasks, s.Downloads, s.Retries, s.Bytes)
		}
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List installed instances",
		Action: func(c *cli.Context) error {
			names, err := instance.List(config.Config.Paths.GameDir)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
}

func argsCommand() *cli.Command {
	return &cli.Command{
		Name:  "args",
		Usage: "Print the launch arguments of an instance",
		Flags: accountFlags(),
		Action: func(c *cli.Context) error {
			d, err := instance.Load(c.String("name"), config.Config.Paths.GameDir)
			if err != nil {
				return err
			}
			for _, arg := range d.LaunchArgs(accountFrom(c)) {
				fmt.Println(arg)
			}
			return nil
		},
	}
}

func launchCommand(opts *options) *cli.Command {
	flags := append(accountFlags(), &cli.BoolFlag{Name: "skip-mod-sync", Usage: "Launch without syncing mods"})
	return &cli.Command{
		Name:  "launch",
		Usage: "Sync mods and start an instance with the configured runtime",
		Flags: flags,
		Action: func(c *cli.Context) error {
			ctx, stop := signalContext(c)
			defer stop()
			sink := launch.NewExecSink(config.Config.RuntimeBinary)
			_, err := newInstaller(opts).Launch(ctx, c.String("name"), accountFrom(c), sink, c.Bool("skip-mod-sync"))
			return err
		},
	}
}

func syncModsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync-mods",
		Usage: "Bring the mods of an instance's game version up to date",
		Flags: []cli.Flag{nameFlag},
		Action: func(c *cli.Context) error {
			ctx, stop := signalContext(c)
			defer stop()
			d, err := instance.Load(c.String("name"), config.Config.Paths.GameDir)
			if err != nil {
				return err
			}
			report, err := modsync.New(downloader.NewClient(config.Config), config.Config).Sync(ctx, d.VersionName)
			if err != nil {
				return err
			}
			fmt.Printf("%d downloaded, %d up to date\n", len(report.Downloaded), len(report.UpToDate))
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete",
		Usage: "Delete an instance",
		Flags: []cli.Flag{nameFlag},
		Action: func(c *cli.Context) error {
			return instance.Delete(c.String("name"), config.Config.Paths.GameDir)
		},
	}
}

func serveCommand(opts *options) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the control API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Usage: "Listen address (defaults to the configured one)"},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signalContext(c)
			defer stop()

			addr := c.String("listen")
			if addr == "" {
				addr = config.Config.ListenAddr
			}
			installer := newInstaller(opts)
			manager := tasks.NewManager(ctx, installer)
			srv := server.New(installer, manager, launch.NewExecSink(config.Config.RuntimeBinary))
			err := srv.ListenAndServe(ctx, addr)
			manager.Wait()
			return err
		},
	}
}

func initConfigCommand(opts *options) *cli.Command {
	return &cli.Command{
		Name:      "init-config",
		Usage:     "Write the effective configuration to a file",
		ArgsUsage: "[path]",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				path = opts.ConfigPath
			}
			if path == "" {
				return fmt.Errorf("no config path given")
			}
			if err := config.Config.Save(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
}
