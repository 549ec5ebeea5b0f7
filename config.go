package main

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jinzhu/configor"
	log "github.com/sirupsen/logrus"
)

const (
	ProviderDrive = "drive"
	ProviderS3    = "s3"
	ProviderGCS   = "gcs"
)

type AppConfig struct {
	RootFolder  string `default:"Videos Backup"`
	LookupScope string `default:"name"`
	StrictNames bool
	Exclude     []string
	Interval    int
	LogLevel    string `default:"info"`
	Quiet       bool
	Provider    ProviderConfig
	Notify      NotifyConfig
}

type ProviderConfig struct {
	Name            string `default:"drive"`
	Bucket          string
	Prefix          string
	Region          string
	Profile         string
	CredentialsFile string
	TokenFile       string
}

type NotifyConfig struct {
	ID      string
	Region  string
	Profile string
}

// LoadConfig reads the optional config file and BACKUP_* environment overrides.
func LoadConfig(configFilePath string) (AppConfig, error) {
	var appConfig AppConfig
	files := make([]string, 0)
	if configFilePath != "" {
		files = append(files, configFilePath)
	}

	loadErr := configor.New(&configor.Config{ENVPrefix: "BACKUP"}).Load(&appConfig, files...)
	if loadErr != nil {
		return appConfig, fmt.Errorf("failed to load config: %w", loadErr)
	}
	if validateErr := appConfig.Validate(); validateErr != nil {
		return appConfig, validateErr
	}

	return appConfig, nil
}

func (c AppConfig) Validate() error {
	switch c.LookupScope {
	case LookupByName, LookupByPath:
	default:
		return fmt.Errorf("unknown lookup scope %q: %w", c.LookupScope, ErrInvalidConfig)
	}

	switch c.Provider.Name {
	case ProviderDrive:
	case ProviderS3, ProviderGCS:
		if c.Provider.Bucket == "" {
			return fmt.Errorf("provider %s requires a bucket: %w", c.Provider.Name, ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown cloud provider %q: %w", c.Provider.Name, ErrInvalidConfig)
	}

	if c.RootFolder == "" || strings.Contains(c.RootFolder, "/") {
		return fmt.Errorf("root folder %q must be a single name: %w", c.RootFolder, ErrInvalidConfig)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must not be negative: %w", ErrInvalidConfig)
	}
	if _, err := c.ExcludePattern(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, ErrInvalidConfig)
	}

	return nil
}

// ExcludePattern joins the exclusion patterns into one regexp, or nil when there
// are none.
func (c AppConfig) ExcludePattern() (*regexp.Regexp, error) {
	if len(c.Exclude) == 0 {
		return nil, nil
	}
	exclude, err := regexp.Compile(strings.Join(c.Exclude, "|"))
	if err != nil {
		return nil, fmt.Errorf("bad exclusion pattern: %s: %w", err, ErrInvalidConfig)
	}
	return exclude, nil
}

func (c AppConfig) ClientFromConfig(ctx context.Context) (StorageClient, error) {
	switch c.Provider.Name {
	case ProviderDrive:
		return NewDriveStorageClient(ctx, c)
	case ProviderS3:
		return NewS3StorageClient(c)
	case ProviderGCS:
		return NewGCSStorageClient(ctx, c)
	}
	return nil, fmt.Errorf("unknown cloud provider: %s: %w", c.Provider.Name, ErrInvalidConfig)
}

func (c AppConfig) NotifierFromConfig() (Notifier, error) {
	if c.Notify.ID == "" {
		return nil, nil
	}
	return NewSNSNotifier(c)
}

func (c AppConfig) ConfigStringArray() []string {
	configStrArr := make([]string, 0)
	configStrArr = append(configStrArr, fmt.Sprintf("  - Provider: %s", c.Provider.Name))
	if c.Provider.Bucket != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Bucket: %s", c.Provider.Bucket))
	}
	configStrArr = append(configStrArr, fmt.Sprintf("  - RootFolder: %s", c.RootFolder))
	configStrArr = append(configStrArr, fmt.Sprintf("  - LookupScope: %s", c.LookupScope))
	configStrArr = append(configStrArr, fmt.Sprintf("  - StrictNames: %t", c.StrictNames))
	if c.Interval > 0 {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Interval: %ds", c.Interval))
	}
	if c.Notify.ID != "" {
		configStrArr = append(configStrArr, fmt.Sprintf("  - SNSTopic: %s", c.Notify.ID))
	}
	for _, pattern := range c.Exclude {
		configStrArr = append(configStrArr, fmt.Sprintf("  - Exclude: %s", pattern))
	}

	return configStrArr
}
