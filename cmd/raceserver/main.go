// Command raceserver runs the authoritative racing session: it reads the
// TOML configuration, loads the track's map-geometry assets, and drives the
// dual TCP/UDP session loop until the race finishes (spec.md §6, §7).
package main

import (
	"io"
	"os"
	"strconv"

	"github.com/natefinch/lumberjack"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/pitwall/raceserver/internal/config"
	"github.com/pitwall/raceserver/internal/geometry"
	"github.com/pitwall/raceserver/internal/race"
	"github.com/pitwall/raceserver/internal/server"
)

func main() {
	configPath := pflag.String("config", "config.toml", "path to the server's TOML configuration")
	logFile := pflag.String("log-file", "raceserver.log", "rotated log file path")
	resourceDir := pflag.String("resources", "", "optional client-resource-mod directory to advertise")
	debug := pflag.Bool("debug", false, "enable trace-level logging")
	quiet := pflag.Bool("quiet", false, "suppress the console log tee, file only")
	pflag.Parse()

	log := buildLogger(*logFile, *debug, *quiet)

	if err := run(*configPath, *resourceDir, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func buildLogger(logFile string, debug, quiet bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.TraceLevel
	}
	zerolog.SetGlobalLevel(level)

	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}

	var out io.Writer = rotator
	if !quiet {
		console := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true, TimeFormat: zerolog.TimeFieldFormat}
		out = zerolog.MultiLevelWriter(rotator, console)
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func run(configPath, resourceDir string, log zerolog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if resourceDir != "" {
		if err := cfg.ScanResourceMods(resourceDir); err != nil {
			return errors.Wrap(err, "scan client resource mods")
		}
	}

	world, err := loadWorld(&cfg.Game)
	if err != nil {
		return errors.Wrap(err, "load map geometry")
	}
	world.Cfg = cfg

	maxCarsLog := "unlimited"
	if cfg.Game.MaxCars != nil {
		maxCarsLog = strconv.Itoa(int(*cfg.Game.MaxCars))
	}
	log.Info().
		Uint16("port", cfg.Network.Port).
		Uint16("overlay_port", cfg.Network.OverlayPort).
		Str("max_cars", maxCarsLog).
		Int("max_laps", cfg.Game.MaxLaps).
		Msg("starting race server")

	srv, err := server.New(cfg, world, log)
	if err != nil {
		return errors.Wrap(err, "construct server")
	}

	srv.Run()
	log.Info().Msg("race finished, server shutting down")
	return nil
}

// loadWorld loads every map-geometry asset named by cfg (spec.md §6: these
// files are read once at startup; a missing or malformed one is fatal).
func loadWorld(cfg *config.GameSettings) (*race.World, error) {
	w := &race.World{}

	var err error
	if w.TrackLimits, err = geometry.LoadTrackLimits(cfg.MapLimits); err != nil {
		return nil, err
	}
	if w.TrackLimitsPit, err = geometry.LoadTrackLimits(cfg.MapLimitsPit); err != nil {
		return nil, err
	}
	if w.TrackLimitsPitExit, err = geometry.LoadTrackLimits(cfg.MapLimitsPitExit); err != nil {
		return nil, err
	}
	if w.SpawnsPit, err = geometry.LoadSpawns(cfg.MapSpawnsPit); err != nil {
		return nil, err
	}
	if w.SpawnsOdd, err = geometry.LoadSpawns(cfg.MapSpawnsOdd); err != nil {
		return nil, err
	}
	if w.SpawnsEven, err = geometry.LoadSpawns(cfg.MapSpawnsEven); err != nil {
		return nil, err
	}
	if w.TrackFinish, err = geometry.LoadTrackPath(cfg.MapFinish); err != nil {
		return nil, err
	}

	w.Checkpoints = make([]*geometry.TrackPath, 0, len(cfg.MapCheckpoints)+1)
	w.Checkpoints = append(w.Checkpoints, w.TrackFinish)
	for i, path := range cfg.MapCheckpoints {
		cp, err := geometry.LoadTrackPath(path)
		if err != nil {
			return nil, errors.Wrapf(err, "checkpoint %d", i+1)
		}
		w.Checkpoints = append(w.Checkpoints, cp)
	}

	return w, nil
}
