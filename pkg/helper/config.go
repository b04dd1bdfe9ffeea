package helper

import (
	"errors"
	"os"
	"path/filepath"
)

// SystemConfigDir is searched last, after the working directory and its
// configs/ subdirectory
const SystemConfigDir = "/etc/casamento"

// ConfigPath locates a configuration file. Absolute names are returned as
// is. A relative name resolves to the first existing file among
// ./name, ./configs/name and SystemConfigDir/name; when none exists the
// system path is returned so the caller's read reports it.
func ConfigPath(name string) (string, error) {
	if name == "" {
		return "", errors.New("config file name is empty")
	}
	if filepath.IsAbs(name) {
		return name, nil
	}

	fallback := filepath.Join(SystemConfigDir, name)
	wd, err := os.Getwd()
	if err != nil {
		return fallback, nil
	}
	for _, candidate := range []string{
		filepath.Join(wd, name),
		filepath.Join(wd, "configs", name),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return fallback, nil
}
