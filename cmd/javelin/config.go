package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the javelin.toml file format. All fields are optional; flags and
// environment take precedence over the file.
type Config struct {
	// ClassPath lists directories searched for user .class files.
	ClassPath []string `toml:"classpath"`
	// JmodPath points at a java.base.jmod for platform classes.
	JmodPath string `toml:"jmod"`
}

// loadConfig reads a TOML config file. A missing file at the default path is
// not an error; a missing file named explicitly is.
func loadConfig(path string, explicit bool) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
	}
	return &cfg, nil
}

// findJmodPath locates java.base.jmod: explicit config first, then the
// JAVA_BASE_JMOD and JAVA_HOME environment variables, then well-known
// OpenJDK install locations.
func findJmodPath(cfg *Config) (string, error) {
	if cfg.JmodPath != "" {
		return cfg.JmodPath, nil
	}
	if p := os.Getenv("JAVA_BASE_JMOD"); p != "" {
		return p, nil
	}
	if home := os.Getenv("JAVA_HOME"); home != "" {
		p := filepath.Join(home, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	matches, err := filepath.Glob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if err == nil && len(matches) > 0 {
		return matches[0], nil
	}
	return "", fmt.Errorf("java.base.jmod not found; set jmod in the config file or JAVA_BASE_JMOD")
}
