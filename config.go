package okto

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config is the persisted user configuration. Zero values are never
// written; DefaultConfig fills every field so a hand-edited file only
// needs the keys the user wants to change.
type Config struct {
	Emulator EmulatorSettings `json:"emulator"`
	Display  DisplaySettings  `json:"display"`
	Input    InputSettings    `json:"input"`
}

type EmulatorSettings struct {
	// SpeedInHz is the cycle rate, clamped to MinSpeed..MaxSpeed on use.
	SpeedInHz uint `json:"speedInHz"`
	// MaxCycles stops a run after that many cycles; 0 means unlimited.
	MaxCycles uint64 `json:"maxCycles"`
	// WriteProtection guards the reserved memory region.
	WriteProtection bool `json:"writeProtection"`
}

type DisplaySettings struct {
	OnChar  string `json:"onChar"`
	OffChar string `json:"offChar"`
}

type InputSettings struct {
	// KeyMappings maps keypad digits "0".."F" to keyboard characters.
	KeyMappings map[string]string `json:"keyMappings"`
}

func DefaultConfig() Config {
	mappings := make(map[string]string, 16)
	for ch, k := range DefaultKeyMap() {
		mappings[fmt.Sprintf("%X", k)] = string(ch)
	}

	return Config{
		Emulator: EmulatorSettings{
			SpeedInHz:       DefaultSpeed,
			MaxCycles:       0,
			WriteProtection: true,
		},
		Display: DisplaySettings{
			OnChar:  "##",
			OffChar: "  ",
		},
		Input: InputSettings{
			KeyMappings: mappings,
		},
	}
}

// KeyMap converts the persisted mappings to the lookup the terminal
// keyboard uses. Entries with an unparsable digit or an empty
// character are skipped rather than failing the whole config.
func (c Config) KeyMap() KeyMap {
	km := make(KeyMap, len(c.Input.KeyMappings))
	for digit, char := range c.Input.KeyMappings {
		k, err := strconv.ParseUint(digit, 16, 8)
		if err != nil || k > 0xF || len(char) == 0 {
			continue
		}
		km[rune(char[0])] = byte(k)
	}

	return km
}

// ConfigManager loads and saves the configuration file in the user's
// OS config directory.
type ConfigManager struct {
	path string
}

func NewConfigManager() (*ConfigManager, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locating user config directory: %w", err)
	}

	return NewConfigManagerWithPath(filepath.Join(dir, "okto", "config.json")), nil
}

func NewConfigManagerWithPath(path string) *ConfigManager {
	return &ConfigManager{path: path}
}

func (m *ConfigManager) Path() string {
	return m.path
}

// Load reads the configuration, writing out the defaults first if no
// file exists yet.
func (m *ConfigManager) Load() (Config, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := m.Save(cfg); err != nil {
			return Config{}, err
		}

		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", m.path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", m.path, err)
	}

	return cfg, nil
}

func (m *ConfigManager) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return os.WriteFile(m.path, append(data, '\n'), 0o644)
}
