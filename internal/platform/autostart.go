// Package platform wraps the OS-specific pieces: directories, autostart and
// the single-instance lock.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName is used for directories, autostart entries and the tray title.
const AppName = "Tempo"

// Service defines OS-specific helpers needed by the application.
type Service interface {
	GetConfigDir() (string, error)
	DataDir() (string, error)
	EnableAutostart(appName, execPath string, args ...string) error
	DisableAutostart(appName string) error
	AutostartEnabled(appName string) (bool, error)
}

type platformService struct{}

// NewService returns a platform-specific implementation.
func NewService() Service {
	return &platformService{}
}

// GetConfigDir returns the per-user configuration root, falling back to an
// OS-specific directory under $HOME.
func (service *platformService) GetConfigDir() (string, error) {
	if configDir, err := os.UserConfigDir(); err == nil && configDir != "" {
		return configDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return fallbackConfigDir(homeDir), nil
}

// DataDir returns the per-user directory holding the snapshot and config.yaml.
func (service *platformService) DataDir() (string, error) {
	configDir, err := service.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("get data dir: %w", err)
	}
	return filepath.Join(configDir, strings.ToLower(AppName)), nil
}

// LaunchEntry is what the OS starts at login.
type LaunchEntry struct {
	Name string
	Exec string
	Args []string
}

func newLaunchEntry(appName, execPath string, args []string) (LaunchEntry, error) {
	if strings.TrimSpace(appName) == "" {
		return LaunchEntry{}, errors.New("autostart: app name is empty")
	}
	if execPath == "" {
		return LaunchEntry{}, errors.New("autostart: exec path is empty")
	}
	return LaunchEntry{Name: appName, Exec: execPath, Args: args}, nil
}

// Command returns the executable followed by its arguments.
func (entry LaunchEntry) Command() []string {
	return append([]string{entry.Exec}, entry.Args...)
}

// slug turns an app name into a file-name friendly identifier.
func slug(appName string) string {
	name := strings.ToLower(strings.TrimSpace(appName))
	if name == "" {
		return strings.ToLower(AppName)
	}
	return strings.Join(strings.Fields(name), "-")
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
