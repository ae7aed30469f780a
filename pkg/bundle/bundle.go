// Package bundle exposes the blobs shipped with the launcher: the graphics
// shim jar and the default configuration files.
package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"PojClient/pkg/decompressor"
)

const GraphicsShim = "lwjgl/lwjgl-glfw-classes-3.2.3.jar"

// ConfigBlob is a bundled file and where it lands under the game root.
type ConfigBlob struct {
	Name   string
	Target string
}

var ConfigBlobs = []ConfigBlob{
	{Name: "sodium-extra.properties", Target: "config/sodium-extra.properties"},
	{Name: "sodium-mixins.properties", Target: "config/sodium-mixins.properties"},
	{Name: "sodium-options.json", Target: "config/sodium-options.json"},
	{Name: "vivecraft-config.properties", Target: "config/vivecraft-config.properties"},
	{Name: "tweakeroo.json", Target: "config/tweakeroo.json"},
	{Name: "smoothboot.json", Target: "config/smoothboot.json"},
	{Name: "malilib.json", Target: "config/malilib.json"},
	{Name: "immediatelyfast.json", Target: "config/immediatelyfast.json"},
	{Name: "c2me.toml", Target: "config/c2me.toml"},
	{Name: "moreculling.toml", Target: "config/moreculling.toml"},
	{Name: "options.txt", Target: "options.txt"},
	{Name: "servers.dat", Target: "servers.dat"},
	{Name: "optionsviveprofiles.txt", Target: "optionsviveprofiles.txt"},
}

type Provider interface {
	Open(name string) ([]byte, error)
}

// FSProvider serves blobs from any fs.FS. A blob stored as "<name>.zst" is
// decompressed transparently.
type FSProvider struct {
	FS fs.FS
}

func NewFSProvider(fsys fs.FS) *FSProvider {
	return &FSProvider{FS: fsys}
}

func (p *FSProvider) Open(name string) ([]byte, error) {
	name = path.Clean(name)
	data, err := fs.ReadFile(p.FS, name)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading bundled %s: %w", name, err)
	}

	compressed, zerr := fs.ReadFile(p.FS, name+".zst")
	if zerr != nil {
		if errors.Is(zerr, fs.ErrNotExist) {
			return nil, fmt.Errorf("bundled %s: %w", name, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("reading bundled %s.zst: %w", name, zerr)
	}
	return decompressor.DecodeZstd(compressed)
}
