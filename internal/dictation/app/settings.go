// ============================================================================
// dikta - Desktop Voice Dictation
// ============================================================================
//
// Package:     app
// Description: Runtime settings persistence
// Author:      The dikta Authors
// Created:     2026-08-15
// License:     MIT
// ============================================================================

package app

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SettingsFile holds the settings a user changes at runtime, persisted
// across restarts separately from the static config file.
type SettingsFile struct {
	PolishRequested bool    `json:"polish_requested"`
	Language        string  `json:"language"`
	Model           string  `json:"model"`
	InputDevice     string  `json:"input_device"`
	VADSensitivity  float64 `json:"vad_sensitivity"`
}

// settingsPath returns the path to the settings file
func settingsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", "dikta")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return filepath.Join(configDir, "settings.json"), nil
}

// saveSettings writes the current runtime settings
func (a *App) saveSettings() error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	a.mu.RLock()
	settings := SettingsFile{
		PolishRequested: a.polishRequested,
		Language:        a.config.General.Language,
		Model:           a.config.Provider.Model,
		InputDevice:     a.config.Audio.InputDevice,
		VADSensitivity:  a.config.VAD.Sensitivity,
	}
	a.mu.RUnlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadSettings applies persisted runtime settings onto the config.
// Returns the polish toggle, which lives outside the config struct.
func LoadSettings(cfg *Config) (bool, error) {
	path, err := settingsPath()
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	var settings SettingsFile
	if err := json.Unmarshal(data, &settings); err != nil {
		return false, err
	}

	if settings.Language != "" {
		cfg.General.Language = settings.Language
	}
	if settings.Model != "" {
		cfg.Provider.Model = settings.Model
	}
	if settings.InputDevice != "" {
		cfg.Audio.InputDevice = settings.InputDevice
	}
	if settings.VADSensitivity > 0 {
		cfg.VAD.Sensitivity = settings.VADSensitivity
	}

	return settings.PolishRequested, nil
}
