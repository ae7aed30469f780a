// Package instance persists installed instances and turns them into launch
// arguments.
package instance

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"PojClient/internal/errs"
	"PojClient/pkg/utils"
)

const descriptorFile = "instance.json"

func ValidateName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || !filepath.IsLocal(name) {
		return fmt.Errorf("invalid instance name %q", name)
	}
	return nil
}

func Dir(gameDir, name string) string {
	return filepath.Join(gameDir, "instances", name)
}

func Path(gameDir, name string) string {
	return filepath.Join(Dir(gameDir, name), descriptorFile)
}

// Save writes d to instances/<name>/instance.json under gameDir.
func Save(d *Descriptor, name, gameDir string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding instance %s: %w", name, err)
	}
	path := Path(gameDir, name)
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return errs.IO(path, err)
	}
	return nil
}

func Load(name, gameDir string) (*Descriptor, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	path := Path(gameDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.IO(path, err)
	}
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errs.IO(path, fmt.Errorf("decoding descriptor: %w", err))
	}
	return &d, nil
}

// Delete removes the instance directory. Deleting a missing instance is not an error.
func Delete(name, gameDir string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	dir := Dir(gameDir, name)
	if err := os.RemoveAll(dir); err != nil {
		return errs.IO(dir, err)
	}
	return nil
}

// List returns the names of instances that have a descriptor, sorted.
func List(gameDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(gameDir, "instances"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errs.IO(gameDir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && utils.Exists(Path(gameDir, e.Name())) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// LaunchArgs builds the argument vector handed to the runtime.
func (d *Descriptor) LaunchArgs(acct Account) []string {
	return []string{
		"-cp", d.Classpath,
		d.MainEntryPoint,
		"--username", acct.Username,
		"--version", d.VersionName,
		"--gameDir", d.GameDir,
		"--assetsDir", d.AssetsDir,
		"--assetIndex", d.AssetIndexID,
		"--uuid", strings.ReplaceAll(acct.UUID, "-", ""),
		"--accessToken", acct.AccessToken,
		"--userType", acct.UserType,
		"--versionType", d.VersionType,
	}
}
