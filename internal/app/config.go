// Package app wires configuration, storage and the completion service into
// the application the CLI runs.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/pkg/types"
)

var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrProviderMissing = errors.New("provider not configured")
)

// ConfigManager loads and saves the global configuration.
type ConfigManager struct {
	globalConfigPath string
	globalConfig     *types.GlobalConfig
}

// NewConfigManager uses config.yaml in the XDG config directory.
func NewConfigManager() (*ConfigManager, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return NewConfigManagerAt(filepath.Join(configDir, "config.yaml")), nil
}

// NewConfigManagerAt uses the config file at path.
func NewConfigManagerAt(path string) *ConfigManager {
	return &ConfigManager{globalConfigPath: path}
}

func getConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "ploomer"), nil
}

// Path returns the location of the config file.
func (cm *ConfigManager) Path() string {
	return cm.globalConfigPath
}

// LoadGlobalConfig reads the config file, or returns the defaults when it
// does not exist. Keys missing from the file keep their default values.
func (cm *ConfigManager) LoadGlobalConfig() (*types.GlobalConfig, error) {
	if cm.globalConfig != nil {
		return cm.globalConfig, nil
	}

	config := types.DefaultGlobalConfig()

	data, err := os.ReadFile(cm.globalConfigPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read global config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := validate(config); err != nil {
		return nil, err
	}

	if config.Providers == nil {
		config.Providers = make(map[string]*types.ProviderConfig)
	}
	for name, provider := range config.Providers {
		if provider == nil {
			delete(config.Providers, name)
			continue
		}
		provider.APIKey = expandEnv(provider.APIKey)
	}
	config.DataDir = expandPath(config.DataDir)

	cm.globalConfig = config
	return cm.globalConfig, nil
}

func validate(config *types.GlobalConfig) error {
	switch config.Storage.Backend {
	case storage.BackendSQLite, storage.BackendFile, storage.BackendMemory, "":
	default:
		return fmt.Errorf("%w: storage.backend %q", ErrInvalidConfig, config.Storage.Backend)
	}
	if config.Generation.AutoGenerateDelay < 0 || config.Generation.RequestTimeout < 0 {
		return fmt.Errorf("%w: negative generation duration", ErrInvalidConfig)
	}
	return nil
}

// SaveGlobalConfig writes config atomically.
func (cm *ConfigManager) SaveGlobalConfig(config *types.GlobalConfig) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := storage.AtomicWriteFile(cm.globalConfigPath, data); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	cm.globalConfig = config
	return nil
}

// GetProviderConfig returns the configuration for a specific provider. The
// toolkit provider works without one.
func (cm *ConfigManager) GetProviderConfig(providerName string) (*types.ProviderConfig, error) {
	config, err := cm.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}

	provider, ok := config.Providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderMissing, providerName)
	}
	return provider, nil
}

// expandEnv resolves a value of the form ${NAME} from the environment.
func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return os.Getenv(value[2 : len(value)-1])
	}
	return value
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
