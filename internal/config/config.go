// Package config resolves the small set of environment-driven
// settings the CLI needs: the oracle base URL, the auth key file, and
// the worker/timeout knobs for the search coordinator.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAuthFile is where the oracle key is read from when
	// BVSYNTH_AUTH_FILE is unset.
	DefaultAuthFile = "./auth.key"
	// DefaultServer is the oracle's well-known address.
	DefaultServer = "http://bvsynth-oracle.cloudapp.net/"
	// DefaultWorkers is the default search parallelism, unless
	// overridden by BVSYNTH_PAR.
	DefaultWorkers = 4
	// DefaultRoundTimeout is the default per-round search budget,
	// unless overridden by BVSYNTH_TIMEOUT (seconds).
	DefaultRoundTimeout = 30 * time.Second
)

// Config is the resolved set of runtime settings.
type Config struct {
	Server       string
	AuthKey      string
	Workers      int
	RoundTimeout time.Duration
	ArchivePath  string
}

// Load reads BVSYNTH_SERVER, BVSYNTH_AUTH_FILE, BVSYNTH_PAR,
// BVSYNTH_TIMEOUT, and BVSYNTH_ARCHIVE from the environment, applying
// defaults for anything unset.
func Load() (Config, error) {
	cfg := Config{
		Server:       DefaultServer,
		Workers:      DefaultWorkers,
		RoundTimeout: DefaultRoundTimeout,
		ArchivePath:  "./bvsynth.db",
	}

	if v := os.Getenv("BVSYNTH_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("BVSYNTH_ARCHIVE"); v != "" {
		cfg.ArchivePath = v
	}

	authFile := DefaultAuthFile
	if v := os.Getenv("BVSYNTH_AUTH_FILE"); v != "" {
		authFile = v
	}
	key, err := os.ReadFile(authFile)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading auth key from %s: %w", authFile, err)
	}
	cfg.AuthKey = strings.TrimSpace(string(key))

	if v := os.Getenv("BVSYNTH_PAR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("config: invalid BVSYNTH_PAR %q", v)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("BVSYNTH_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 1 {
			return Config{}, fmt.Errorf("config: invalid BVSYNTH_TIMEOUT %q", v)
		}
		cfg.RoundTimeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}
