package models

// version_manifest_v2.json
type VersionIndexLatest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

type VersionIndexEntry struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Sha1        string `json:"sha1"`
	ReleaseTime string `json:"releaseTime"`
}

type VersionIndex struct {
	Latest   VersionIndexLatest  `json:"latest"`
	Versions []VersionIndexEntry `json:"versions"`
}

// Artifact is a single downloadable file with a declared SHA-1.
// Path is empty for the client jar.
type Artifact struct {
	Path string `json:"path,omitempty"`
	Sha1 string `json:"sha1"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

type LibraryDownloads struct {
	Artifact *Artifact `json:"artifact,omitempty"`
}

// Library covers both upstream shapes. Vanilla entries carry
// downloads.artifact; modloader entries carry a coordinate name and a
// repository base URL.
type Library struct {
	Name      string            `json:"name"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	URL       string            `json:"url,omitempty"`
}

type AssetIndexRef struct {
	ID   string `json:"id"`
	Sha1 string `json:"sha1,omitempty"`
	URL  string `json:"url"`
}

type VersionDownloads struct {
	Client *Artifact `json:"client,omitempty"`
}

type VersionManifest struct {
	ID           string            `json:"id"`
	InheritsFrom string            `json:"inheritsFrom,omitempty"`
	Type         string            `json:"type"`
	MainClass    string            `json:"mainClass"`
	AssetIndex   *AssetIndexRef    `json:"assetIndex,omitempty"`
	Downloads    *VersionDownloads `json:"downloads,omitempty"`
	Libraries    []Library         `json:"libraries"`
}

type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

type AssetIndex struct {
	Objects map[string]AssetObject `json:"objects"`
}
