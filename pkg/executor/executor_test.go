package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"PojClient/internal/config"
	"PojClient/internal/errs"
	"PojClient/internal/logging"
	"PojClient/internal/models"
	"PojClient/pkg/assembler"
	"PojClient/pkg/bundle"
	"PojClient/pkg/downloader"
	"PojClient/pkg/planner"
	"PojClient/pkg/verifier"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream serves fixed bodies and counts requests per path. failures makes
// the first n requests to a path answer 500.
type upstream struct {
	mu       sync.Mutex
	files    map[string][]byte
	failures map[string]int
	hits     map[string]int
}

func newUpstream(t *testing.T) (*upstream, *httptest.Server) {
	u := &upstream{files: map[string][]byte{}, failures: map[string]int{}, hits: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits[r.URL.Path]++
		fail := u.failures[r.URL.Path] > 0
		if fail {
			u.failures[r.URL.Path]--
		}
		body, ok := u.files[r.URL.Path]
		u.mu.Unlock()

		switch {
		case fail:
			http.Error(w, "flaky", http.StatusInternalServerError)
		case !ok:
			http.NotFound(w, r)
		default:
			w.Write(body)
		}
	}))
	t.Cleanup(srv.Close)
	return u, srv
}

func (u *upstream) hitsFor(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func (u *upstream) totalHits() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	total := 0
	for _, n := range u.hits {
		total += n
	}
	return total
}

type fixture struct {
	up     *upstream
	srv    *httptest.Server
	layout planner.Layout
	base   *models.VersionManifest
	mod    *models.VersionManifest
	assets *models.AssetIndex
	fs     fstest.MapFS
}

var (
	clientBody = []byte("client jar bytes")
	lib1Body   = []byte("library one")
	lib2Body   = []byte("library two")
	indexBody  = []byte(`{"objects":{}}`)
	iconBody   = []byte("icon png")
	soundBody  = []byte("sound ogg")
)

func newFixture(t *testing.T) *fixture {
	up, srv := newUpstream(t)
	dir := t.TempDir()
	f := &fixture{
		up:  up,
		srv: srv,
		layout: planner.Layout{
			GameDir:         filepath.Join(dir, "game"),
			GameRoot:        filepath.Join(dir, "root"),
			UserHome:        filepath.Join(dir, "home"),
			AssetObjectsURL: srv.URL + "/objects",
		},
		fs: fstest.MapFS{bundle.GraphicsShim: {Data: []byte("shim classes")}},
	}
	for _, blob := range bundle.ConfigBlobs {
		f.fs[blob.Name] = &fstest.MapFile{Data: []byte("default " + blob.Name)}
	}

	up.files["/client.jar"] = clientBody
	up.files["/libs/one.jar"] = lib1Body
	up.files["/libs/two.jar"] = lib2Body
	up.files["/index.json"] = indexBody

	iconHash := verifier.BytesSHA1(iconBody)
	soundHash := verifier.BytesSHA1(soundBody)
	up.files["/objects/"+iconHash[:2]+"/"+iconHash] = iconBody
	up.files["/objects/"+soundHash[:2]+"/"+soundHash] = soundBody

	f.base = &models.VersionManifest{
		ID:         "1.20.1",
		Type:       "release",
		MainClass:  "net.minecraft.client.main.Main",
		AssetIndex: &models.AssetIndexRef{ID: "5", URL: srv.URL + "/index.json", Sha1: verifier.BytesSHA1(indexBody)},
		Downloads:  &models.VersionDownloads{Client: &models.Artifact{URL: srv.URL + "/client.jar", Sha1: verifier.BytesSHA1(clientBody)}},
		Libraries: []models.Library{
			f.vanilla("com.example:one:1", "com/example/one/1/one-1.jar", "/libs/one.jar", lib1Body),
			f.vanilla("org.lwjgl:lwjgl:3.3.1", "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar", "/libs/lwjgl.jar", []byte("lwjgl")),
			f.vanilla("com.example:two:1", "com/example/two/1/two-1.jar", "/libs/two.jar", lib2Body),
		},
	}
	f.assets = &models.AssetIndex{Objects: map[string]models.AssetObject{
		"icons/icon.png":      {Hash: iconHash, Size: int64(len(iconBody))},
		"icons/icon_copy.png": {Hash: iconHash, Size: int64(len(iconBody))},
		"sounds/step.ogg":     {Hash: soundHash, Size: int64(len(soundBody))},
	}}
	return f
}

func (f *fixture) vanilla(name, path, route string, body []byte) models.Library {
	return models.Library{Name: name, Downloads: &models.LibraryDownloads{Artifact: &models.Artifact{
		Path: path, URL: f.srv.URL + route, Sha1: verifier.BytesSHA1(body),
	}}}
}

func (f *fixture) plan(t *testing.T) *planner.InstallPlan {
	plan, err := planner.Build(f.base, f.mod, f.assets, f.layout)
	require.NoError(t, err)
	return plan
}

func (f *fixture) executor() *Executor {
	cfg := config.Default()
	cfg.RequestTimeout = 5 * time.Second
	return &Executor{
		Client:      downloader.NewClient(cfg),
		Provider:    bundle.NewFSProvider(f.fs),
		Pool:        downloader.NewPool(5),
		MaxAttempts: 5,
		Progress:    NewProgress(),
		Logger:      logging.NewWithOutput(io.Discard, logrus.DebugLevel),
	}
}

func (f *fixture) libPath(rel string) string {
	return filepath.Join(f.layout.GameDir, "libraries", filepath.FromSlash(rel))
}

func TestRunFreshInstall(t *testing.T) {
	f := newFixture(t)
	plan := f.plan(t)
	exec := f.executor()

	res, err := exec.Run(context.Background(), plan)
	require.NoError(t, err)

	clientPath := planner.ClientPath(f.layout.GameDir, "1.20.1")
	shimPath := planner.GraphicsShimPath(f.layout.UserHome)
	expected := assembler.Join(clientPath,
		[]string{f.libPath("com/example/one/1/one-1.jar"), f.libPath("com/example/two/1/two-1.jar")},
		nil, shimPath)
	assert.Equal(t, expected, res.Classpath)

	for _, p := range assembler.Split(res.Classpath) {
		assert.FileExists(t, p)
	}
	assert.NoFileExists(t, f.libPath("org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar"))
	assert.Zero(t, f.up.hitsFor("/libs/lwjgl.jar"), "verify-only libraries are never downloaded")

	require.Len(t, res.BaseLibraries, 3)
	assert.Equal(t, StateSkipped, res.BaseLibraries[1].State)

	// client, two libraries, the index and two distinct objects
	assert.Equal(t, 6, res.Downloads())
	for _, blob := range bundle.ConfigBlobs {
		data, err := os.ReadFile(filepath.Join(f.layout.GameRoot, filepath.FromSlash(blob.Target)))
		require.NoError(t, err)
		assert.Equal(t, "default "+blob.Name, string(data))
	}

	snap := exec.Progress.Snapshot()
	assert.Equal(t, snap.TotalTasks, snap.VerifiedTasks+snap.SkippedTasks)
	assert.Equal(t, 1, snap.SkippedTasks)
	assert.Zero(t, snap.FailedTasks)
	assert.Equal(t, 6, snap.Downloads)
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.executor().Run(context.Background(), f.plan(t))
	require.NoError(t, err)
	hits := f.up.totalHits()

	second, err := f.executor().Run(context.Background(), f.plan(t))
	require.NoError(t, err)

	assert.Zero(t, second.Downloads())
	assert.Equal(t, hits, f.up.totalHits())
	assert.Equal(t, first.Classpath, second.Classpath)
}

func TestRunRedownloadsCorruptedClient(t *testing.T) {
	f := newFixture(t)
	clientPath := planner.ClientPath(f.layout.GameDir, "1.20.1")
	require.NoError(t, os.MkdirAll(filepath.Dir(clientPath), 0o755))
	require.NoError(t, os.WriteFile(clientPath, []byte("garbage"), 0o644))

	res, err := f.executor().Run(context.Background(), f.plan(t))
	require.NoError(t, err)

	require.Len(t, res.Client, 1)
	assert.Equal(t, StateVerified, res.Client[0].State)
	assert.Equal(t, 2, res.Client[0].Attempts)
	assert.Equal(t, 1, res.Client[0].Downloads)

	ok, err := verifier.Verify(clientPath, verifier.BytesSHA1(clientBody))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunPermanentMismatchExhaustsRetries(t *testing.T) {
	f := newFixture(t)
	f.base.Downloads.Client.Sha1 = "0000000000000000000000000000000000000000"

	res, err := f.executor().Run(context.Background(), f.plan(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrRetryExhausted)
	assert.ErrorIs(t, err, errs.ErrIntegrity)
	assert.Empty(t, res.Classpath)

	require.Len(t, res.Client, 1)
	assert.Equal(t, StateFailed, res.Client[0].State)
	assert.Equal(t, 5, res.Client[0].Attempts)
	assert.Equal(t, 5, f.up.hitsFor("/client.jar"))
	// the last downloaded copy stays for the next run to inspect
	assert.FileExists(t, planner.ClientPath(f.layout.GameDir, "1.20.1"))
}

func TestRunRetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	f.up.failures["/client.jar"] = 2

	res, err := f.executor().Run(context.Background(), f.plan(t))
	require.NoError(t, err)

	assert.Equal(t, 3, res.Client[0].Attempts)
	assert.Equal(t, 3, res.Client[0].Downloads)
}

func TestRunModLibrariesFetchCompanionDigest(t *testing.T) {
	f := newFixture(t)
	jar := []byte("fabric loader")
	route := "/maven/net/fabricmc/fabric-loader/0.15.11/fabric-loader-0.15.11.jar"
	f.up.files[route] = jar
	f.up.files[route+".sha1"] = []byte(verifier.BytesSHA1(jar) + "  fabric-loader-0.15.11.jar\n")
	f.up.failures[route+".sha1"] = 1
	f.mod = &models.VersionManifest{
		ID:        "fabric-loader-0.15.11-1.20.1",
		MainClass: "net.fabricmc.loader.impl.launch.knot.KnotClient",
		Libraries: []models.Library{{Name: "net.fabricmc:fabric-loader:0.15.11", URL: f.srv.URL + "/maven/"}},
	}

	res, err := f.executor().Run(context.Background(), f.plan(t))
	require.NoError(t, err)

	require.Len(t, res.ModLibraries, 1)
	assert.Equal(t, 2, res.ModLibraries[0].Attempts, "failed digest fetch is retried")
	assert.Equal(t, 2, f.up.hitsFor(route+".sha1"))
	assert.Equal(t, 1, f.up.hitsFor(route))

	parts := assembler.Split(res.Classpath)
	require.Len(t, parts, 5)
	assert.Equal(t, f.libPath("net/fabricmc/fabric-loader/0.15.11/fabric-loader-0.15.11.jar"), parts[3])
}

func TestRunVerifyOnlyLibraries(t *testing.T) {
	lwjgl := "org/lwjgl/lwjgl/3.3.1/lwjgl-3.3.1.jar"

	t.Run("present and valid joins the classpath", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(f.libPath(lwjgl)), 0o755))
		require.NoError(t, os.WriteFile(f.libPath(lwjgl), []byte("lwjgl"), 0o644))

		res, err := f.executor().Run(context.Background(), f.plan(t))
		require.NoError(t, err)
		assert.Equal(t, StateVerified, res.BaseLibraries[1].State)
		assert.Contains(t, assembler.Split(res.Classpath), f.libPath(lwjgl))
		assert.Zero(t, f.up.hitsFor("/libs/lwjgl.jar"))
	})

	t.Run("present and corrupt fails", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(f.libPath(lwjgl)), 0o755))
		require.NoError(t, os.WriteFile(f.libPath(lwjgl), []byte("tampered"), 0o644))

		_, err := f.executor().Run(context.Background(), f.plan(t))
		assert.ErrorIs(t, err, errs.ErrIntegrity)
		assert.Zero(t, f.up.hitsFor("/libs/lwjgl.jar"))
	})
}

func TestRunMissingBlobIsTerminal(t *testing.T) {
	f := newFixture(t)
	delete(f.fs, "options.txt")

	_, err := f.executor().Run(context.Background(), f.plan(t))
	assert.ErrorIs(t, err, errs.ErrIO)
}

func TestRunHonoursCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.executor().Run(ctx, f.plan(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.up.hitsFor("/client.jar"))
}

func TestRunGroupRespectsLibraryLimit(t *testing.T) {
	f := newFixture(t)
	exec := f.executor()
	exec.LibraryConcurrency = 1

	outcomes, err := exec.RunGroup(context.Background(), f.plan(t).BaseLibraries)
	require.NoError(t, err)
	assert.Len(t, VerifiedPaths(outcomes), 2)
}

func TestProgressSubscribers(t *testing.T) {
	p := NewProgress()
	ch := p.Subscribe()

	p.addTotal(2)
	p.finished(StateVerified)

	first := <-ch
	assert.Equal(t, 2, first.TotalTasks)
	second := <-ch
	assert.Equal(t, 1, second.VerifiedTasks)
	assert.InDelta(t, 0.5, p.Fraction(), 1e-9)

	p.Close()
	_, open := <-ch
	assert.False(t, open)
}

func TestProgressSubscribeAfterClose(t *testing.T) {
	p := NewProgress()
	p.addTotal(3)
	p.finished(StateSkipped)
	p.Close()
	p.Close()

	ch := p.Subscribe()
	final, open := <-ch
	require.True(t, open)
	assert.Equal(t, 3, final.TotalTasks)
	assert.Equal(t, 1, final.SkippedTasks)
	_, open = <-ch
	assert.False(t, open)

	p.mu.Lock()
	assert.Empty(t, p.subscribers, "late subscribers are not retained")
	p.mu.Unlock()
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to TaskState
		ok       bool
	}{
		{StatePending, StateRunning, true},
		{StatePending, StateVerified, false},
		{StateRunning, StateRetrying, true},
		{StateRunning, StateSkipped, true},
		{StateRetrying, StateRunning, true},
		{StateRetrying, StateFailed, true},
		{StateRetrying, StateVerified, false},
		{StateVerified, StateRunning, false},
		{StateFailed, StateRunning, false},
	}
	for _, tt := range tests {
		o := Outcome{Task: &planner.Task{Name: "t"}, State: tt.from}
		err := o.transition(tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, o.State)
		} else {
			assert.Error(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.from, o.State)
		}
	}
	assert.True(t, IsTerminal(StateSkipped))
	assert.False(t, IsTerminal(StateRetrying))
}
