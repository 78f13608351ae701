// Package prefs keeps window and session preferences in a JSON file next to
// the editor config.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

const prefsFile = "preferences.json"

// MaxRecent bounds the recent project list.
const MaxRecent = 8

// Keys used by the main window.
const (
	KeyLastDir        = "lastDirectory"
	KeyLastProject    = "lastProject"
	KeyRecentProjects = "recentProjects"
	KeyZoom           = "zoom"
	KeyFitToWindow    = "fitToWindow"
	KeyWindowW        = "windowWidth"
	KeyWindowH        = "windowHeight"
)

// Prefs is a concurrency-safe key-value store persisted as JSON.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads preferences from the user config directory, for example
// ~/.config/printboard/preferences.json. A missing or unreadable file gives
// empty preferences.
func Load() *Prefs {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return LoadFrom(filepath.Join(configDir, "printboard"))
}

// LoadFrom reads preferences stored in dir. A file that does not hold a JSON
// object gives empty preferences.
func LoadFrom(dir string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   filepath.Join(dir, prefsFile),
	}
	if data, err := os.ReadFile(p.path); err == nil {
		if err := json.Unmarshal(data, &p.values); err != nil || p.values == nil {
			p.values = make(map[string]interface{})
		}
	}
	return p
}

// Dir returns the directory holding the preferences file, where the
// default config.yaml also lives.
func (p *Prefs) Dir() string {
	return filepath.Dir(p.path)
}

// Save writes the preferences through a temporary file so a crash never
// leaves a truncated file behind.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(p.Dir(), 0o755); err != nil {
		return err
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p.path)
}

func (p *Prefs) get(key string) (interface{}, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok
}

func (p *Prefs) set(key string, val interface{}) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Float returns a float64 preference, or 0 if not set.
func (p *Prefs) Float(key string) float64 {
	return p.FloatWithFallback(key, 0)
}

// FloatWithFallback returns a float64 preference, or fallback if not set.
func (p *Prefs) FloatWithFallback(key string, fallback float64) float64 {
	v, _ := p.get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) { p.set(key, val) }

// String returns a string preference, or "" if not set.
func (p *Prefs) String(key string) string {
	v, _ := p.get(key)
	s, _ := v.(string)
	return s
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) { p.set(key, val) }

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	v, _ := p.get(key)
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) { p.set(key, val) }

// Strings returns a string list preference. Decoded JSON arrays arrive as
// []interface{}; non-string members are skipped.
func (p *Prefs) Strings(key string) []string {
	v, _ := p.get(key)
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// SetStrings stores a string list preference.
func (p *Prefs) SetStrings(key string, val []string) {
	p.set(key, append([]string(nil), val...))
}

// AddRecent moves path to the front of the recent project list, keeping at
// most MaxRecent entries.
func (p *Prefs) AddRecent(path string) {
	recent := []string{path}
	for _, r := range p.Strings(KeyRecentProjects) {
		if r != path && len(recent) < MaxRecent {
			recent = append(recent, r)
		}
	}
	p.SetStrings(KeyRecentProjects, recent)
}
