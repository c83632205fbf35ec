package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/pattern/pkg"
)

// baseConfig is the base name of the configuration file. Its top-level key
// is [cmd.ConfigIdentifier].
const baseConfig = "config.yaml"

var defaultDirMode os.FileMode = 0o700

// appName returns the name used for the configuration and cache
// directories: the executable base name without extension or leading dots.
// A dlv debug binary maps to [pkg.Name].
var appName = sync.OnceValue(func() string {
	id := os.Args[0]
	if exe, err := os.Executable(); err == nil {
		id = exe
	}

	id = filepath.Base(id)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	id = strings.TrimLeft(id, ".")

	if regexp.MustCompile(`^__debug_bin\d*$`).MatchString(id) || id == "" {
		return pkg.Name
	}

	return id
})

// userDir returns base joined with the application name. If base cannot
// be determined, the fallback directory under the home directory is used,
// then the working directory.
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, appName())
}

var (
	configDir = sync.OnceValue(func() string { return userDir(os.UserConfigDir, ".config") })
	cacheDir  = sync.OnceValue(func() string { return userDir(os.UserCacheDir, ".cache") })
)

// configPath joins elem to the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
