package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/lvh-project/lvh/pkg/defaults"
)

var viperAccessMutex sync.RWMutex

//ConfigVars struct with parameters from config file
type ConfigVars struct {
	Driver       string
	DriverTarget string
	SSHKey       string
	LogLevel     string
	LogDir       string
	ReportDir    string
	ResultsDB    string
	SQLEnabled   bool
}

//DefaultHomePath returns the harness home directory inside HOME
func DefaultHomePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot detect home directory: %w", err)
	}
	return filepath.Join(home, defaults.DefaultHomeDir), nil
}

//DefaultConfigPath returns path to config file
func DefaultConfigPath() (string, error) {
	homeDir, err := DefaultHomePath()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, defaults.DefaultConfigFile), nil
}

//GetConfig resolves the config file path: explicit argument wins, then the
//environment variable, then the file in the current directory, then the
//default under HOME.
func GetConfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if fromEnv := os.Getenv(defaults.DefaultConfigEnv); fromEnv != "" {
		return fromEnv
	}
	if _, err := os.Stat(defaults.DefaultConfigFile); err == nil {
		return defaults.DefaultConfigFile
	}
	configPath, err := DefaultConfigPath()
	if err != nil {
		log.Errorf("GetConfig: %s", err)
		return ""
	}
	return configPath
}

//LoadConfigFile load config from file with viper
func LoadConfigFile(config string) (loaded bool, err error) {
	if config == "" {
		config, err = DefaultConfigPath()
		if err != nil {
			return false, fmt.Errorf("cannot get config path: %w", err)
		}
	}
	if _, err := os.Stat(config); os.IsNotExist(err) {
		return false, nil
	}
	viperAccessMutex.Lock()
	defer viperAccessMutex.Unlock()
	viper.SetConfigFile(config)
	if err := viper.ReadInConfig(); err != nil {
		return false, fmt.Errorf("failed to read config file %s: %w", config, err)
	}
	return true, nil
}

//ResolveAbsPath use the harness home directory as root for relative paths
func ResolveAbsPath(curPath string) string {
	if strings.TrimSpace(curPath) == "" || filepath.IsAbs(curPath) {
		return curPath
	}
	homeDir, err := DefaultHomePath()
	if err != nil {
		log.Fatalf("ResolveAbsPath: %s", err)
	}
	return filepath.Join(homeDir, curPath)
}

//InitVars loads vars from viper
func InitVars() (*ConfigVars, error) {
	if viper.ConfigFileUsed() == "" {
		configPath, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		if _, err := LoadConfigFile(configPath); err != nil {
			return nil, err
		}
	}
	viperAccessMutex.RLock()
	defer viperAccessMutex.RUnlock()
	vars := &ConfigVars{
		Driver:       viper.GetString("test.driver"),
		DriverTarget: viper.GetString("test.target"),
		SSHKey:       ResolveAbsPath(viper.GetString("test.ssh-key")),
		LogLevel:     viper.GetString("log.level"),
		LogDir:       ResolveAbsPath(viper.GetString("log.dist")),
		ReportDir:    ResolveAbsPath(viper.GetString("report.dist")),
		ResultsDB:    ResolveAbsPath(viper.GetString("report.database")),
		SQLEnabled:   viper.GetBool("report.sql"),
	}
	if vars.Driver == "" {
		vars.Driver = defaults.DriverHyperV
	}
	if vars.LogDir == "" {
		vars.LogDir = ResolveAbsPath(defaults.DefaultLogDist)
	}
	if vars.ReportDir == "" {
		vars.ReportDir = ResolveAbsPath(defaults.DefaultReportDist)
	}
	if vars.ResultsDB == "" {
		vars.ResultsDB = ResolveAbsPath(defaults.DefaultResultsDB)
	}
	return vars, nil
}
