package models

// Entry of the Fabric/Quilt meta loader list. Quilt omits Stable.
type LoaderVersion struct {
	Separator string `json:"separator"`
	Build     int    `json:"build"`
	Maven     string `json:"maven"`
	Version   string `json:"version"`
	Stable    *bool  `json:"stable,omitempty"`
}

// Mod set manifest: game version -> mods.
type ModEntry struct {
	Slug         string `json:"slug"`
	Version      string `json:"version"`
	DownloadLink string `json:"download_link"`
}

type ModManifest map[string][]ModEntry
