// Package theme owns the host's theme marker: a "light"/"dark" value the
// user toggles, optionally mirrored to a file that other tools may edit.
// Subscribers learn about every change; the scene is one of them.
package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"heroscene/internal/scene"
)

// Marker is the current theme value. It is not safe for concurrent use;
// file changes reach it through the host's post mailbox.
type Marker struct {
	value string
	path  string
	subs  []func(light bool)
}

func NewMarker(initial string) *Marker {
	return &Marker{value: normalize(initial)}
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Value is the raw marker value. Anything other than "light" means dark.
func (m *Marker) Value() string { return m.value }

func (m *Marker) IsLight() bool { return scene.ParseTheme(m.value) }

// Subscribe registers fn for every change of the light flag.
func (m *Marker) Subscribe(fn func(light bool)) {
	m.subs = append(m.subs, fn)
}

// Set stores v and notifies subscribers when the light flag changed.
func (m *Marker) Set(v string) {
	v = normalize(v)
	if v == m.value {
		return
	}
	was := m.IsLight()
	m.value = v
	if now := m.IsLight(); now != was {
		for _, fn := range m.subs {
			fn(now)
		}
	}
}

// Toggle flips between light and dark and writes the bound file, if any.
func (m *Marker) Toggle() error {
	m.Set(scene.ThemeName(!m.IsLight()))
	if m.path == "" {
		return nil
	}
	if err := writeMarker(m.path, m.value); err != nil {
		return fmt.Errorf("write theme marker: %w", err)
	}
	return nil
}

// Bind mirrors the marker to path. An existing file wins over the current
// value; a missing one is created with it.
func (m *Marker) Bind(path string) error {
	m.path = path
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		m.Set(string(data))
		return nil
	case os.IsNotExist(err):
		if err := writeMarker(path, m.value); err != nil {
			return fmt.Errorf("create theme marker: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("read theme marker: %w", err)
	}
}

// writeMarker replaces path in one rename so readers never see it empty.
func writeMarker(path, value string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(value + "\n"); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
