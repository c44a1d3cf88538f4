// Package config reads the server's TOML configuration file (spec.md §6)
// and the optional client-resource-mod manifest original_source/main.rs
// builds at startup (SPEC_FULL.md "Supplemented features").
package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Defaults applied when the corresponding TOML field is absent or zero
// (spec.md §6).
const (
	DefaultPort        = 48900
	DefaultOverlayPort = 48901
	DefaultQualTime    = 120
	DefaultMaxLaps     = 5
)

// NetworkSettings is the `[network]` table.
type NetworkSettings struct {
	Port        uint16 `toml:"port"`
	OverlayPort uint16 `toml:"overlay_port"`
}

// GameSettings is the `[game]` table.
type GameSettings struct {
	Map              string   `toml:"map"`
	MapLimits        string   `toml:"map_limits"`
	MapLimitsPit     string   `toml:"map_limits_pit"`
	MapLimitsPitExit string   `toml:"map_limits_pit_exit"`
	MapFinish        string   `toml:"map_finish"`
	MapSpawnsPit     string   `toml:"map_spawns_pit"`
	MapSpawnsOdd     string   `toml:"map_spawns_odd"`
	MapSpawnsEven    string   `toml:"map_spawns_even"`
	MapCheckpoints   []string `toml:"map_checkpoints"`
	ServerPhysics    bool     `toml:"server_physics"`
	// MaxCars is optional (spec.md §6 lists no default): nil means no
	// per-client car-count limit is enforced, matching the original's
	// `Option<u8>` semantics (`_examples/original_source/src/server/mod.rs`:
	// "if let Some(max_cars) = self.config.game.max_cars { ... }").
	MaxCars  *uint8 `toml:"max_cars"`
	MaxLaps  int    `toml:"max_laps"`
	QualTime int    `toml:"qual_time"`
}

// EventSettings is the `[event]` table.
type EventSettings struct {
	ExpectedClients []string `toml:"expected_clients"`
}

// ModFile is one entry of the client-resource-mod manifest scanned at
// startup (original_source/src/main.rs). The manifest is kept on
// Config.ResourceMods; the 'H' hello reply does not include it.
type ModFile struct {
	Name string
	Size int64
}

// Config is the full decoded server configuration.
type Config struct {
	Network NetworkSettings `toml:"network"`
	Game    GameSettings    `toml:"game"`
	Event   EventSettings   `toml:"event"`

	ResourceMods []ModFile `toml:"-"`
}

// Load reads and decodes path, applying documented defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config %q", path)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Network.Port == 0 {
		c.Network.Port = DefaultPort
	}
	if c.Network.OverlayPort == 0 {
		c.Network.OverlayPort = DefaultOverlayPort
	}
	if c.Game.QualTime == 0 {
		c.Game.QualTime = DefaultQualTime
	}
	if c.Game.MaxLaps == 0 {
		c.Game.MaxLaps = DefaultMaxLaps
	}
	// max_cars has no default (spec.md §6): an absent field leaves
	// c.Game.MaxCars nil, meaning unrestricted.
}

// ScanResourceMods walks dir for files to advertise as client-side
// resources. A missing directory is not an error: client resources are an
// optional supplement (SPEC_FULL.md), never a startup requirement the way
// missing map-geometry assets are (spec.md §6).
func (c *Config) ScanResourceMods(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "read client resource folder %q", dir)
	}

	mods := make([]ModFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		mods = append(mods, ModFile{Name: name, Size: info.Size()})
	}
	c.ResourceMods = mods
	return nil
}
