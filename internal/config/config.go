package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Endpoints struct {
	VersionIndex string `json:"version_index"`
	AssetObjects string `json:"asset_objects"`
	FabricMeta   string `json:"fabric_meta"`
	QuiltMeta    string `json:"quilt_meta"`
	ModManifest  string `json:"mod_manifest"`
}

type Paths struct {
	// GameDir holds versions, libraries, assets and instances.
	GameDir string `json:"game_dir"`
	// GameRoot is shared between instances: config blobs and mods.
	GameRoot string `json:"game_root"`
	// UserHome holds the graphics shim and the mod manifest cache.
	UserHome string `json:"user_home"`
}

type PojClientConfig struct {
	MaxAttempts        int           `json:"max_attempts"`
	AssetConcurrency   int           `json:"asset_concurrency"`
	LibraryConcurrency int           `json:"library_concurrency"`
	RequestTimeout     time.Duration `json:"request_timeout"`
	RetryBackoff       time.Duration `json:"retry_backoff"`
	MaxIdleConns       int           `json:"max_idle_conns"`
	MaxConnsPerHost    int           `json:"max_conns_per_host"`
	ListenAddr         string        `json:"listen_addr"`
	RuntimeBinary      string        `json:"runtime_binary"`

	Endpoints Endpoints `json:"endpoints"`
	Paths     Paths     `json:"paths"`
}

type configJSON PojClientConfig

// UnmarshalJSON accepts durations either as Go duration strings ("90s")
// or as integer nanoseconds.
func (c *PojClientConfig) UnmarshalJSON(data []byte) error {
	aux := struct {
		*configJSON
		RequestTimeout json.RawMessage `json:"request_timeout"`
		RetryBackoff   json.RawMessage `json:"retry_backoff"`
	}{configJSON: (*configJSON)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if err := parseDuration("request_timeout", aux.RequestTimeout, &c.RequestTimeout); err != nil {
		return err
	}
	return parseDuration("retry_backoff", aux.RetryBackoff, &c.RetryBackoff)
}

// MarshalJSON writes durations as strings.
func (c PojClientConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		configJSON
		RequestTimeout string `json:"request_timeout"`
		RetryBackoff   string `json:"retry_backoff"`
	}{configJSON(c), c.RequestTimeout.String(), c.RetryBackoff.String()})
}

// parseDuration leaves dst alone when the field was absent or null.
func parseDuration(field string, raw json.RawMessage, dst *time.Duration) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		d, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		*dst = d
		return nil
	}
	var nanos int64
	if err := json.Unmarshal(raw, &nanos); err != nil {
		return fmt.Errorf("%s: want a duration string or integer nanoseconds, got %s", field, raw)
	}
	*dst = time.Duration(nanos)
	return nil
}

func Default() PojClientConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	root := filepath.Join(home, ".pojclient")

	return PojClientConfig{
		MaxAttempts:        5,
		AssetConcurrency:   5,
		LibraryConcurrency: 0,
		RequestTimeout:     2 * time.Minute,
		RetryBackoff:       250 * time.Millisecond,
		MaxIdleConns:       100,
		MaxConnsPerHost:    32,
		ListenAddr:         "127.0.0.1:8080",
		RuntimeBinary:      "java",
		Endpoints: Endpoints{
			VersionIndex: "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json",
			AssetObjects: "https://resources.download.minecraft.net",
			FabricMeta:   "https://meta.fabricmc.net/v2/versions/loader",
			QuiltMeta:    "https://meta.quiltmc.org/v3/versions/loader",
			ModManifest:  "https://raw.githubusercontent.com/QuestCraftPlusPlus/Pojlib/QuestCraft/mods.json",
		},
		Paths: Paths{
			GameDir:  filepath.Join(root, "game"),
			GameRoot: filepath.Join(root, "game"),
			UserHome: root,
		},
	}
}

var Config PojClientConfig = Default()

// Load overlays the JSON file at path on top of the defaults, then applies
// environment overrides.
func Load(path string) (PojClientConfig, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decoding config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *PojClientConfig) applyEnv() {
	if v := os.Getenv("POJ_GAME_DIR"); v != "" {
		c.Paths.GameDir = v
	}
	if v := os.Getenv("POJ_GAME_ROOT"); v != "" {
		c.Paths.GameRoot = v
	}
	if v := os.Getenv("POJ_USER_HOME"); v != "" {
		c.Paths.UserHome = v
	}
}

func (c *PojClientConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.AssetConcurrency < 1 {
		return fmt.Errorf("asset_concurrency must be >= 1, got %d", c.AssetConcurrency)
	}
	if c.LibraryConcurrency < 0 {
		return fmt.Errorf("library_concurrency must be >= 0, got %d", c.LibraryConcurrency)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

// Save writes the configuration as indented JSON.
func (c *PojClientConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
