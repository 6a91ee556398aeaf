//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

const registryRunKey = `HKCU\Software\Microsoft\Windows\CurrentVersion\Run`

func (service *platformService) EnableAutostart(appName, execPath string, args ...string) error {
	entry, err := newLaunchEntry(appName, execPath, args)
	if err != nil {
		return err
	}
	if _, err := reg("add", registryRunKey, "/v", entry.Name, "/t", "REG_SZ", "/d", commandLine(entry), "/f"); err != nil {
		return fmt.Errorf("enable autostart: %w", err)
	}
	return nil
}

func (service *platformService) DisableAutostart(appName string) error {
	if enabled, err := service.AutostartEnabled(appName); err != nil || !enabled {
		return err
	}
	if _, err := reg("delete", registryRunKey, "/v", appName, "/f"); err != nil {
		return fmt.Errorf("disable autostart: %w", err)
	}
	return nil
}

// AutostartEnabled treats any failed query as "no such value".
func (service *platformService) AutostartEnabled(appName string) (bool, error) {
	_, err := reg("query", registryRunKey, "/v", appName)
	return err == nil, nil
}

func reg(args ...string) (string, error) {
	output, err := exec.Command("reg", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("reg %s: %w: %s", args[0], err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Roaming")
}

func commandLine(entry LaunchEntry) string {
	parts := []string{`"` + strings.Trim(entry.Exec, `"`) + `"`}
	for _, argument := range entry.Args {
		if strings.ContainsAny(argument, " \t") {
			argument = `"` + argument + `"`
		}
		parts = append(parts, argument)
	}
	return strings.Join(parts, " ")
}
