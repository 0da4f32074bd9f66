package theme

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerNotifiesOnFlagChange(t *testing.T) {
	m := NewMarker("dark")
	var got []bool
	m.Subscribe(func(light bool) { got = append(got, light) })

	m.Set("Light ")
	m.Set("light")
	m.Set("sepia") // unknown means dark
	m.Set("dark")  // still dark, no event

	assert.Equal(t, []bool{true, false}, got)
	assert.Equal(t, "dark", m.Value())
	assert.False(t, m.IsLight())
}

func TestToggleWritesBoundFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme")
	m := NewMarker("dark")
	require.NoError(t, m.Bind(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dark\n", string(data))

	require.NoError(t, m.Toggle())
	assert.True(t, m.IsLight())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "light\n", string(data))
}

func TestBindPrefersExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme")
	require.NoError(t, os.WriteFile(path, []byte("light"), 0o644))

	m := NewMarker("dark")
	var events []bool
	m.Subscribe(func(light bool) { events = append(events, light) })
	require.NoError(t, m.Bind(path))
	assert.True(t, m.IsLight())
	assert.Equal(t, []bool{true}, events)
}

func TestToggleWithoutFile(t *testing.T) {
	m := NewMarker("")
	require.NoError(t, m.Toggle())
	assert.Equal(t, "light", m.Value())
}

func TestWatchPostsFileContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "theme")
	require.NoError(t, os.WriteFile(path, []byte("dark"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []string
	)
	post := func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}
	record := func(v string) { seen = append(seen, v) }
	require.NoError(t, Watch(ctx, path, post, record, nil))

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other"), []byte("light"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("light"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) > 0 && seen[len(seen)-1] == "light"
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, v := range seen {
		assert.Equal(t, "light", v)
	}
}

// watchMarker wires m to path the way the host does. run executes fn on
// the simulated host thread; flips lists light flag changes seen so far.
func watchMarker(t *testing.T, m *Marker, path string) (run func(func()), flips func() []bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var (
		mu  sync.Mutex
		got []bool
	)
	m.Subscribe(func(light bool) { got = append(got, light) })
	run = func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}
	require.NoError(t, Watch(ctx, path, run, m.Set, nil))
	flips = func() []bool {
		mu.Lock()
		defer mu.Unlock()
		return append([]bool(nil), got...)
	}
	return run, flips
}

func TestRewriteKeepsLightTheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme")
	require.NoError(t, os.WriteFile(path, []byte("light\n"), 0o644))
	m := NewMarker("light")
	_, flips := watchMarker(t, m, path)

	for i := 0; i < 300; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0o644)
		require.NoError(t, err)
		_, err = f.WriteString("light\n")
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	assert.Never(t, func() bool { return len(flips()) > 0 }, 10*settle, 10*time.Millisecond)
}

func TestEmptyMarkerFileIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme")
	require.NoError(t, os.WriteFile(path, []byte("light"), 0o644))
	m := NewMarker("light")
	_, flips := watchMarker(t, m, path)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.Never(t, func() bool { return len(flips()) > 0 }, 10*settle, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("dark"), 0o644))
	require.Eventually(t, func() bool { return len(flips()) > 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []bool{false}, flips())
}

func TestToggleWhileWatchedFlipsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme")
	m := NewMarker("dark")
	require.NoError(t, m.Bind(path))
	run, flips := watchMarker(t, m, path)

	var err error
	run(func() { err = m.Toggle() })
	require.NoError(t, err)

	assert.Never(t, func() bool { return len(flips()) > 1 }, 10*settle, 10*time.Millisecond)
	assert.Equal(t, []bool{true}, flips())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "light\n", string(data))
}

func TestWatchMissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "theme"), func(fn func()) { fn() }, func(string) {}, nil)
	assert.Error(t, err)
}
