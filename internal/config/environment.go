package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ConfigDirEnv lists extra directories searched for config.yaml, separated
// like PATH.
const ConfigDirEnv = EnvPrefix + "_CONFIG_DIR"

// SearchPaths returns the directories the binaries pass to Load: those named
// in LOYALTY_CONFIG_DIR first, then the working directory.
func SearchPaths() []string {
	var paths []string
	for _, dir := range filepath.SplitList(os.Getenv(ConfigDirEnv)) {
		if dir = strings.TrimSpace(dir); dir != "" {
			paths = append(paths, dir)
		}
	}
	return append(paths, ".")
}
