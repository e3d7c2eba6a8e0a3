package app

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/require"

	actx "go.hackfix.me/migrant/app/context"
	"go.hackfix.me/migrant/db"
	"go.hackfix.me/migrant/db/dialect"
)

type testApp struct {
	*App
	stdout, stderr *bytes.Buffer
	env            *mockEnv
	fs             vfs.FileSystem
}

func newTestDSN(t *testing.T) string {
	t.Helper()

	// A unique name per app, to avoid clashing of in-memory SQLite DBs.
	rndName := make([]byte, 12)
	_, err := rand.Read(rndName)
	require.NoError(t, err)

	// Not using just :memory: to avoid 'no such table' issue.
	// See https://github.com/mattn/go-sqlite3#faq
	return fmt.Sprintf("file:migrant-%x?mode=memory&cache=shared", rndName)
}

// newTestApp returns an application with an in-memory filesystem. If withDB
// is true, an in-memory SQLite database is created and injected.
func newTestApp(t *testing.T, withDB bool) *testApp {
	t.Helper()

	var (
		stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
		env            = &mockEnv{env: map[string]string{}}
		fs             = memoryfs.New()
	)

	opts := []Option{
		WithContext(t.Context()),
		WithEnv(env),
		WithFDs(&bytes.Buffer{}, stdout, stderr),
		WithFS(fs),
		WithLogger(false, false),
	}

	if withDB {
		d, err := db.Open(t.Context(), dialect.SQLite, newTestDSN(t))
		require.NoError(t, err)
		t.Cleanup(func() { _ = d.Close() })
		opts = append(opts, WithDB(d))
	}

	app, err := New("migrant", "/config.json", opts...)
	require.NoError(t, err)

	return &testApp{App: app, stdout: stdout, stderr: stderr, env: env, fs: fs}
}

// Run resets the output buffers and runs the app with args.
func (ta *testApp) Run(args ...string) error {
	ta.stdout.Reset()
	ta.stderr.Reset()
	return ta.App.Run(args)
}

func (ta *testApp) writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	require.NoError(t, ta.fs.MkdirAll(dir, 0o755))
	for name, content := range files {
		err := vfs.WriteFile(ta.fs, filepath.Join(dir, name), []byte(content), 0o644)
		require.NoError(t, err)
	}
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = (*mockEnv)(nil)

func (me *mockEnv) Get(key string) string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	return me.env[key]
}

func (me *mockEnv) Set(key, val string) error {
	me.mx.Lock()
	defer me.mx.Unlock()
	me.env[key] = val
	return nil
}
