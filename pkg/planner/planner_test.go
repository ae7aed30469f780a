package planner

import (
	"path/filepath"
	"testing"

	"PojClient/internal/errs"
	"PojClient/internal/models"
	"PojClient/pkg/bundle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	digestA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	digestB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func vanilla(name, path string) models.Library {
	return models.Library{Name: name, Downloads: &models.LibraryDownloads{Artifact: &models.Artifact{
		Path: path, URL: "https://libraries.example/" + path, Sha1: digestA,
	}}}
}

func testBase() *models.VersionManifest {
	return &models.VersionManifest{
		ID:         "1.20.1",
		Type:       "release",
		MainClass:  "net.minecraft.client.main.Main",
		AssetIndex: &models.AssetIndexRef{ID: "5", URL: "https://meta.example/5.json"},
		Downloads:  &models.VersionDownloads{Client: &models.Artifact{URL: "https://meta.example/client.jar", Sha1: digestA}},
		Libraries: []models.Library{
			vanilla("com.example:one:1", "com/example/one/1/one-1.jar"),
			vanilla("org.lwjgl:lwjgl:3.3.1", "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar"),
			vanilla("com.example:two:1", "com/example/two/1/two-1.jar"),
		},
	}
}

func testLayout(t *testing.T) Layout {
	dir := t.TempDir()
	return Layout{
		GameDir:         filepath.Join(dir, "game"),
		GameRoot:        filepath.Join(dir, "root"),
		UserHome:        filepath.Join(dir, "home"),
		AssetObjectsURL: "https://resources.example",
	}
}

func TestBuildBaseOnly(t *testing.T) {
	layout := testLayout(t)
	assets := &models.AssetIndex{Objects: map[string]models.AssetObject{
		"icons/a.png": {Hash: digestA, Size: 1},
		"icons/b.png": {Hash: digestB, Size: 1},
	}}

	plan, err := Build(testBase(), nil, assets, layout)
	require.NoError(t, err)

	require.Len(t, plan.Client.Tasks, 1)
	assert.Equal(t, filepath.Join(layout.GameDir, "versions", "1.20.1", "1.20.1.jar"), plan.Client.Tasks[0].Path)
	assert.Equal(t, "net.minecraft.client.main.Main", plan.MainClass)

	require.Len(t, plan.BaseLibraries.Tasks, 3)
	assert.False(t, plan.BaseLibraries.Tasks[0].VerifyOnly)
	assert.True(t, plan.BaseLibraries.Tasks[1].VerifyOnly, "lwjgl libraries are verify-only")
	assert.Equal(t, "com.example:two:1", plan.BaseLibraries.Tasks[2].Name, "manifest order is kept")
	assert.Empty(t, plan.ModLibraries.Tasks)

	require.Len(t, plan.GraphicsShim.Tasks, 1)
	assert.Equal(t, filepath.Join(layout.UserHome, "lwjgl3", "lwjgl-glfw-classes-3.2.3.jar"), plan.GraphicsShim.Tasks[0].Path)

	// index + 2 objects + bundled configs
	assert.Len(t, plan.Assets.Tasks, 1+2+len(bundle.ConfigBlobs))
	assert.True(t, plan.Assets.Pooled)
	index := plan.Assets.Tasks[0]
	assert.Equal(t, KindAssetIndex, index.Kind)
	assert.Equal(t, filepath.Join(layout.GameDir, "assets", "indexes", "5.json"), index.Path)

	obj := plan.Assets.Tasks[1]
	assert.Equal(t, filepath.Join(layout.GameDir, "assets", "objects", "aa", digestA), obj.Path)
	assert.Equal(t, "https://resources.example/aa/"+digestA, obj.URL)
}

func TestBuildDedupsAssetsByDigest(t *testing.T) {
	assets := &models.AssetIndex{Objects: map[string]models.AssetObject{
		"sounds/one.ogg": {Hash: digestA},
		"sounds/two.ogg": {Hash: digestA},
	}}

	plan, err := Build(testBase(), nil, assets, testLayout(t))
	require.NoError(t, err)

	objects := 0
	for _, task := range plan.Assets.Tasks {
		if task.Kind == KindAssetObject {
			objects++
		}
	}
	assert.Equal(t, 1, objects)
}

func TestBuildWithModloader(t *testing.T) {
	mod := &models.VersionManifest{
		ID:        "fabric-loader-0.15.11-1.20.1",
		MainClass: "net.fabricmc.loader.impl.launch.knot.KnotClient",
		Libraries: []models.Library{
			{Name: "net.fabricmc:fabric-loader:0.15.11", URL: "https://maven.fabricmc.net/"},
			{Name: "net.fabricmc:intermediary:1.20.1", URL: "https://maven.fabricmc.net"},
		},
	}
	layout := testLayout(t)

	plan, err := Build(testBase(), mod, &models.AssetIndex{Objects: map[string]models.AssetObject{}}, layout)
	require.NoError(t, err)

	assert.Equal(t, mod.MainClass, plan.MainClass, "modloader entry point supersedes the base one")
	require.Len(t, plan.ModLibraries.Tasks, 2)
	task := plan.ModLibraries.Tasks[0]
	assert.Equal(t, "https://maven.fabricmc.net/net/fabricmc/fabric-loader/0.15.11/fabric-loader-0.15.11.jar", task.URL)
	assert.Equal(t, task.URL+".sha1", task.DigestURL)
	assert.Empty(t, task.Digest)
	assert.Equal(t, filepath.Join(layout.GameDir, "libraries", "net", "fabricmc", "fabric-loader", "0.15.11", "fabric-loader-0.15.11.jar"), task.Path)
	assert.Equal(t, "https://maven.fabricmc.net/net/fabricmc/intermediary/1.20.1/intermediary-1.20.1.jar", plan.ModLibraries.Tasks[1].URL)
}

func TestBuildRejectsBadLibraries(t *testing.T) {
	tests := []struct {
		name string
		lib  models.Library
	}{
		{name: "mod coordinate with classifier", lib: models.Library{Name: "a:b:c:natives", URL: "https://maven.example/"}},
		{name: "mod coordinate escaping libraries", lib: models.Library{Name: "g:a:../../../../../outside", URL: "https://maven.example/"}},
		{name: "no source", lib: models.Library{Name: "a:b:c"}},
		{name: "artifact without sha1", lib: models.Library{Name: "a:b:c", Downloads: &models.LibraryDownloads{Artifact: &models.Artifact{Path: "a/b.jar", URL: "u"}}}},
		{name: "escaping path", lib: models.Library{Name: "a:b:c", Downloads: &models.LibraryDownloads{Artifact: &models.Artifact{Path: "../../etc/x.jar", URL: "u", Sha1: digestA}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := testBase()
			base.Libraries = append(base.Libraries, tt.lib)
			_, err := Build(base, nil, &models.AssetIndex{Objects: map[string]models.AssetObject{}}, testLayout(t))
			assert.ErrorIs(t, err, errs.ErrManifest)
		})
	}
}

func TestBuildSkipsNativeOnlyAndDuplicateLibraries(t *testing.T) {
	base := testBase()
	base.Libraries = append(base.Libraries,
		models.Library{Name: "org.example:natives:1", Downloads: &models.LibraryDownloads{}},
		vanilla("com.example:one:1", "com/example/one/1/one-1.jar"),
	)

	plan, err := Build(base, nil, &models.AssetIndex{Objects: map[string]models.AssetObject{}}, testLayout(t))
	require.NoError(t, err)
	assert.Len(t, plan.BaseLibraries.Tasks, 3)
}

func TestBuildRequiresAssetIndex(t *testing.T) {
	_, err := Build(testBase(), nil, nil, testLayout(t))
	assert.ErrorIs(t, err, errs.ErrManifest)
}

func TestLibrarySourceResolve(t *testing.T) {
	src, ok, err := ResolveLibrary(models.Library{Name: "net.example:widget:1.2.3", URL: "https://repo.example/maven/"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, LibraryMod, src.Kind)
	assert.False(t, src.IsGraphicsLibrary())

	path, url, digest, digestURL := src.Resolve()
	assert.Equal(t, "net/example/widget/1.2.3/widget-1.2.3.jar", path)
	assert.Equal(t, "https://repo.example/maven/net/example/widget/1.2.3/widget-1.2.3.jar", url)
	assert.Empty(t, digest)
	assert.Equal(t, url+".sha1", digestURL)
}
