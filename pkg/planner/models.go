package planner

type TaskKind string

const (
	KindClient        TaskKind = "client"
	KindLibrary       TaskKind = "library"
	KindAssetIndex    TaskKind = "asset-index"
	KindAssetObject   TaskKind = "asset-object"
	KindGraphicsShim  TaskKind = "graphics-shim"
	KindBundledConfig TaskKind = "bundled-config"
)

// Task owns exactly one target path.
type Task struct {
	Kind TaskKind
	// Name identifies the artifact in logs and errors.
	Name string
	Path string

	URL    string
	Digest string
	// DigestURL is fetched once per attempt when Digest is not known up front.
	DigestURL string

	// Blob names a bundled blob written to Path instead of a download.
	Blob string

	// VerifyOnly tasks never download: a present file must verify, a
	// missing one is skipped.
	VerifyOnly bool
}

type Group struct {
	Name  string
	Tasks []*Task
	// Pooled groups borrow permits from the shared download pool.
	Pooled bool
}

type Layout struct {
	GameDir         string
	GameRoot        string
	UserHome        string
	AssetObjectsURL string
}

type InstallPlan struct {
	VersionID    string
	VersionType  string
	MainClass    string
	AssetIndexID string
	GameDir      string
	AssetsDir    string

	Client        Group
	BaseLibraries Group
	ModLibraries  Group
	GraphicsShim  Group
	Assets        Group
}

type LibraryKind int

const (
	LibraryVanilla LibraryKind = iota
	LibraryMod
)

// LibrarySource is the resolved form of a manifest library entry.
// Vanilla entries carry their artifact; mod entries carry a coordinate and
// the repository it lives in.
type LibrarySource struct {
	Kind       LibraryKind
	Name       string
	Path       string
	URL        string
	Digest     string
	Repository string
}
