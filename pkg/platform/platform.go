// Package platform provides OS path conventions for launchd descriptor scopes.
package platform

import (
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

const (
	// GlobalAgentsDir holds descriptors installed for all users.
	GlobalAgentsDir = "/Library/LaunchAgents"

	// SystemAgentsDir holds descriptors shipped by the OS vendor.
	SystemAgentsDir = "/System/Library/LaunchAgents"
)

// UserAgentsDir returns the per-user descriptor directory.
func UserAgentsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents"), nil
}

// GetConfigDir returns the directory for the launchmgr config file.
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "launchmgr")
}

// GetDataDir returns the directory for persistent application data,
// such as the status cache database.
func GetDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "launchmgr")
}

// UID returns the current user ID as a string, for launchctl domain
// targets of the form gui/<uid>/<label>.
func UID() string {
	return strconv.Itoa(os.Getuid())
}

// Writable reports whether the current user can write to path.
// System descriptor directories are typically read-only for non-root users.
func Writable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
