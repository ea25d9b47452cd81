package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sidkik/dirmirror/pkg/errors"
)

// Config is the configuration for a single dirmirror process.
type Config struct {
	// Source is the absolute path of the authoritative tree.
	Source string

	// Replica is the absolute path of the tree that mirrors Source.
	Replica string

	// Interval is the time to wait between the end of one pass and the
	// start of the next.
	Interval time.Duration

	// LogFile is the absolute path of the append-only sync log.
	LogFile string
}

// FromArgs builds the Config from the positional command line arguments:
// source, replica, interval in seconds, and log file.
func FromArgs(args []string) (Config, error) {
	if len(args) != 4 {
		return Config{}, errors.NewFriendlyError(
			"Expected 4 arguments (SOURCE REPLICA INTERVAL LOGFILE), got %d.", len(args))
	}

	seconds, err := strconv.Atoi(args[2])
	if err != nil || seconds <= 0 {
		return Config{}, errors.NewFriendlyError(
			"The interval must be a positive number of seconds, got %q.", args[2])
	}

	var paths [3]string
	for i, arg := range []string{args[0], args[1], args[3]} {
		paths[i], err = resolvePath(arg)
		if err != nil {
			return Config{}, errors.WithContext(err, "resolve path")
		}
	}

	cfg := Config{
		Source:   paths[0],
		Replica:  paths[1],
		Interval: time.Duration(seconds) * time.Second,
		LogFile:  paths[2],
	}

	if cfg.Source == cfg.Replica {
		return Config{}, errors.NewFriendlyError(
			"The source and replica folders must be different.")
	}

	if isWithin(cfg.Source, cfg.Replica) || isWithin(cfg.Replica, cfg.Source) {
		return Config{}, errors.NewFriendlyError(
			"The source and replica folders can't be nested inside each other.")
	}

	// Anything inside the replica that isn't in the source gets deleted.
	if isWithin(cfg.LogFile, cfg.Replica) {
		return Config{}, errors.NewFriendlyError(
			"The log file %q can't be inside the replica folder.", cfg.LogFile)
	}
	return cfg, nil
}

// CheckSource returns an error if the source root doesn't exist or isn't a
// directory.
func (cfg Config) CheckSource() error {
	fi, err := fs.Stat(cfg.Source)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound{Path: cfg.Source}
		}
		return errors.WithContext(err, "stat source")
	}

	if !fi.IsDir() {
		return errors.NotADirectory{Path: cfg.Source}
	}
	return nil
}

func resolvePath(path string) (string, error) {
	expanded, err := homedirExpand(path)
	if err != nil {
		return "", errors.WithContext(err, "expand home directory")
	}
	return filepath.Abs(expanded)
}

// isWithin returns whether `path` is a strict descendant of `dir`.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." &&
		!strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
