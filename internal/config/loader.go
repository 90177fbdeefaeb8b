package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/regtestctl"
	projectConfigDir = ".regtestctl"
	configFileName   = "config.yaml"
)

// LoadConfig loads the regtestctl configuration by layering default, user,
// and project settings. Both files are optional; a missing file simply
// leaves the lower layer in effect.
func LoadConfig() (Config, error) {
	config := GetDefaultConfig()

	userConfigPath, err := getUserConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine user config path: %v\n", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not determine project config path: %v\n", err)
	} else {
		if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
			projectConfig, err := loadConfigFromFile(projectConfigPath)
			if err != nil {
				return Config{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
			}
			config = mergeConfigs(config, projectConfig)
		}
	}

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Only fields the
// overlay explicitly sets replace the base values.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	if overlay.Node.Image != "" {
		merged.Node.Image = overlay.Node.Image
	}
	if overlay.Node.ContainerName != "" {
		merged.Node.ContainerName = overlay.Node.ContainerName
	}
	if overlay.Node.VolumeName != "" {
		merged.Node.VolumeName = overlay.Node.VolumeName
	}
	if overlay.Node.ContainerRuntime != "" {
		merged.Node.ContainerRuntime = overlay.Node.ContainerRuntime
	}
	if overlay.Node.RPCPort != 0 {
		merged.Node.RPCPort = overlay.Node.RPCPort
	}
	if overlay.Node.RPCUser != "" {
		merged.Node.RPCUser = overlay.Node.RPCUser
	}
	if overlay.Node.RPCPassword != "" {
		merged.Node.RPCPassword = overlay.Node.RPCPassword
	}
	if overlay.Node.ExtraArgs != nil {
		merged.Node.ExtraArgs = overlay.Node.ExtraArgs
	}

	if overlay.Readiness.MaxAttempts != 0 {
		merged.Readiness.MaxAttempts = overlay.Readiness.MaxAttempts
	}
	if overlay.Readiness.Interval != 0 {
		merged.Readiness.Interval = overlay.Readiness.Interval
	}
	if overlay.Readiness.AttemptTimeout != 0 {
		merged.Readiness.AttemptTimeout = overlay.Readiness.AttemptTimeout
	}

	if overlay.Runner.Command != nil {
		merged.Runner.Command = overlay.Runner.Command
	}
	if overlay.Runner.Dir != "" {
		merged.Runner.Dir = overlay.Runner.Dir
	}
	if overlay.Runner.Env != nil {
		merged.Runner.Env = overlay.Runner.Env
	}

	return merged
}

// GetUserConfigDir returns the user configuration directory path.
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
