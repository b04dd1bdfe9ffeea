package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// GetPIDPath returns the path to the PID file.
//
// Priority:
// 1. If filename is an absolute path, return it directly.
// 2. Resolve it against the working directory when its parent exists.
// 3. Otherwise, fallback to /var/run/casamento.pid
func GetPIDPath(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}

	currentDir := getPIDCurrentDir(filename)
	if currentDir != "" {
		return currentDir
	}

	// fallback
	return "/var/run/casamento.pid"
}

func getPIDCurrentDir(filename string) string {
	if filename == "" {
		return ""
	}

	currentDir, err := os.Getwd()
	if err != nil || currentDir == "" {
		return ""
	}

	absPath, err := filepath.Abs(filepath.Join(currentDir, filename))
	if err != nil {
		return ""
	}

	// Check if parent directory exists
	if _, err := os.Stat(filepath.Dir(absPath)); err == nil {
		return absPath
	}
	return ""
}

// WritePID writes the current process ID to path, creating its directory
func WritePID(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}

// ReadPID returns the process ID stored in path
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
