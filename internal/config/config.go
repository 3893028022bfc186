// Package config loads and watches the daemon's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/tabstorm/internal/action"
	"github.com/dshills/tabstorm/internal/input/key"
	"github.com/dshills/tabstorm/internal/input/keymap"
)

// Errors returned by configuration operations.
var (
	// ErrBadLeader indicates an unparseable leader key name.
	ErrBadLeader = errors.New("invalid leader key")

	// ErrBadKeybind indicates an unparseable keybind entry.
	ErrBadKeybind = errors.New("invalid keybind")
)

// General holds the top-level settings.
type General struct {
	// MaxSlots is the quick-access slot count, bounded to [1, 10].
	MaxSlots int `toml:"max_slots"`

	// Leader is the key that begins every bound sequence.
	Leader string `toml:"leader"`

	// SequenceTimeoutMS is the multi-key sequence timeout.
	SequenceTimeoutMS int `toml:"sequence_timeout_ms"`

	// RecreateMissing permits jump to reopen a pinned URL whose tab
	// is gone.
	RecreateMissing bool `toml:"recreate_missing"`

	// DataDir is where the daemon keeps its database.
	DataDir string `toml:"data_dir"`

	// HistoryLimit caps history rows in the search corpus.
	HistoryLimit int `toml:"history_limit"`

	// ListenAddr is the websocket bridge address.
	ListenAddr string `toml:"listen_addr"`
}

// Config is the full daemon configuration.
type Config struct {
	General General `toml:"general"`

	// Keybinds maps sequence strings to action names,
	// e.g. "space h a" = "slot.mark". Empty means the default table.
	Keybinds map[string]string `toml:"keybinds"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		General: General{
			MaxSlots:          5,
			Leader:            string(keymap.DefaultLeader),
			SequenceTimeoutMS: 1000,
			RecreateMissing:   true,
			DataDir:           defaultDataDir(),
			HistoryLimit:      200,
			ListenAddr:        "127.0.0.1:8377",
		},
	}
}

// Load reads the config file at path. A missing file is not an error;
// defaults are returned. Out-of-range values are clamped rather than
// rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg.clamp()
	if _, err := cfg.Table(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) clamp() {
	if c.General.MaxSlots < 1 {
		c.General.MaxSlots = 1
	}
	if c.General.MaxSlots > 10 {
		c.General.MaxSlots = 10
	}
	if c.General.SequenceTimeoutMS <= 0 {
		c.General.SequenceTimeoutMS = 1000
	}
	if c.General.HistoryLimit <= 0 {
		c.General.HistoryLimit = 200
	}
	if c.General.Leader == "" {
		c.General.Leader = string(keymap.DefaultLeader)
	}
	if c.General.ListenAddr == "" {
		c.General.ListenAddr = "127.0.0.1:8377"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = defaultDataDir()
	}
}

// SequenceTimeout returns the sequence timeout as a duration.
func (c Config) SequenceTimeout() time.Duration {
	return time.Duration(c.General.SequenceTimeoutMS) * time.Millisecond
}

// Table builds the binding table from the keybinds section, or the
// default table when the section is empty.
func (c Config) Table() (*keymap.Table, error) {
	leader, err := key.Normalize(c.General.Leader)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadLeader, c.General.Leader)
	}

	if len(c.Keybinds) == 0 {
		if leader != keymap.DefaultLeader {
			return nil, fmt.Errorf("%w: leader %q needs a [keybinds] section", ErrBadLeader, c.General.Leader)
		}
		return keymap.Default(c.General.MaxSlots), nil
	}

	// Sort for deterministic validation errors.
	keys := make([]string, 0, len(c.Keybinds))
	for k := range c.Keybinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	bindings := make([]keymap.Binding, 0, len(keys))
	for _, seq := range keys {
		act, err := action.Parse(c.Keybinds[seq])
		if err != nil {
			return nil, fmt.Errorf("%w: %q = %q: %v", ErrBadKeybind, seq, c.Keybinds[seq], err)
		}
		bindings = append(bindings, keymap.Binding{Keys: seq, Action: act})
	}

	table, err := keymap.NewTable(leader, bindings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKeybind, err)
	}
	return table, nil
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return base + string(os.PathSeparator) + "tabstorm"
}
