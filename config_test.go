package okto_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"

	okto "github.com/guslan/okto"
)

func TestConfigLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	manager := okto.NewConfigManagerWithPath(path)

	cfg, err := manager.Load()
	assert.NoError(t, err)

	if diff := cmp.Diff(okto.DefaultConfig(), cfg); diff != "" {
		t.Fatalf("default config mismatch (-want +got):\n%s", diff)
	}

	// The defaults were persisted for the user to edit.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestConfigRoundTrip(t *testing.T) {
	manager := okto.NewConfigManagerWithPath(filepath.Join(t.TempDir(), "config.json"))

	cfg := okto.DefaultConfig()
	cfg.Emulator.SpeedInHz = 250
	cfg.Emulator.WriteProtection = false
	cfg.Display.OnChar = "[]"
	cfg.Input.KeyMappings["0"] = "m"

	assert.NoError(t, manager.Save(cfg))

	loaded, err := manager.Load()
	assert.NoError(t, err)

	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Fatalf("config round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigLoadRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := okto.NewConfigManagerWithPath(path).Load()
	assert.Error(t, err)
}

func TestConfigKeyMapConversion(t *testing.T) {
	cfg := okto.DefaultConfig()
	km := cfg.KeyMap()

	if diff := cmp.Diff(okto.DefaultKeyMap(), km); diff != "" {
		t.Fatalf("key map mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigKeyMapSkipsBadEntries(t *testing.T) {
	cfg := okto.Config{
		Input: okto.InputSettings{
			KeyMappings: map[string]string{
				"0":  "x",
				"zz": "y", // not a hex digit
				"10": "w", // out of keypad range
				"1":  "",  // no character
			},
		},
	}

	km := cfg.KeyMap()
	assert.Len(t, km, 1)
	assert.Equal(t, byte(0x0), km['x'])
}
