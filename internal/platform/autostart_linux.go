//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (service *platformService) EnableAutostart(appName, execPath string, args ...string) error {
	entry, err := newLaunchEntry(appName, execPath, args)
	if err != nil {
		return err
	}
	path, err := service.desktopEntryPath(appName)
	if err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("enable autostart: create autostart dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(desktopEntry(entry)), 0o644); err != nil {
		return fmt.Errorf("enable autostart: write desktop entry: %w", err)
	}
	return nil
}

func (service *platformService) DisableAutostart(appName string) error {
	path, err := service.desktopEntryPath(appName)
	if err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("disable autostart: remove desktop entry: %w", err)
	}
	return nil
}

func (service *platformService) AutostartEnabled(appName string) (bool, error) {
	path, err := service.desktopEntryPath(appName)
	if err != nil {
		return false, fmt.Errorf("autostart status: %w", err)
	}
	return exists(path)
}

func (service *platformService) desktopEntryPath(appName string) (string, error) {
	configDir, err := service.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart", slug(appName)+".desktop"), nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

// desktopEntry renders an XDG autostart file. Arguments containing spaces
// are double-quoted per the Exec key rules.
func desktopEntry(entry LaunchEntry) string {
	command := entry.Command()
	for i, part := range command {
		if strings.ContainsAny(part, " \t") && !strings.HasPrefix(part, `"`) {
			command[i] = `"` + part + `"`
		}
	}

	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	fmt.Fprintf(&b, "Name=%s\n", entry.Name)
	fmt.Fprintf(&b, "Exec=%s\n", strings.Join(command, " "))
	b.WriteString("X-GNOME-Autostart-enabled=true\n")
	b.WriteString("Terminal=false\n")
	return b.String()
}
