package instance

import (
	"PojClient/internal/logging"
	"PojClient/pkg/executor"
	"PojClient/pkg/metaAPI"
	"PojClient/pkg/modsync"
	"PojClient/pkg/planner"
)

// Descriptor is everything needed to launch an installed instance without
// touching upstream metadata again.
type Descriptor struct {
	VersionName    string `json:"versionName"`
	VersionType    string `json:"versionType"`
	MainEntryPoint string `json:"mainEntryPoint"`
	Classpath      string `json:"classpath"`
	GameDir        string `json:"gameDir"`
	AssetIndexID   string `json:"assetIndexId"`
	AssetsDir      string `json:"assetsDir"`
}

// Account is opaque to the installer apart from these four fields.
type Account struct {
	Username    string
	UUID        string
	AccessToken string
	UserType    string
}

// Installer wires metadata resolution, planning and execution together.
type Installer struct {
	Meta     *metaAPI.Client
	Executor *executor.Executor
	Syncer   *modsync.Syncer
	Layout   planner.Layout
	Logger   *logging.Logger
}
