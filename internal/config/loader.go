package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is looked up in the working and home directories.
	DefaultConfigFile = ".webcrawler.yaml"

	// XDGConfigFile is looked up in XDGConfigDir.
	XDGConfigFile = "config.yaml"
)

// File is the YAML configuration file. Pointer fields distinguish an
// explicit zero from an absent key.
type File struct {
	StartPages             []string          `yaml:"startPages,omitempty"`
	IgnoredURLs            []string          `yaml:"ignoredUrls,omitempty"`
	IgnoredWords           []string          `yaml:"ignoredWords,omitempty"`
	Parallelism            *int              `yaml:"parallelism,omitempty"`
	ImplementationOverride string            `yaml:"implementationOverride,omitempty"`
	MaxDepth               *int              `yaml:"maxDepth,omitempty"`
	TimeoutSeconds         *int              `yaml:"timeoutSeconds,omitempty"`
	PopularWordCount       *int              `yaml:"popularWordCount,omitempty"`
	ProfileOutputPath      string            `yaml:"profileOutputPath,omitempty"`
	ResultPath             string            `yaml:"resultPath,omitempty"`
	UserAgent              string            `yaml:"userAgent,omitempty"`
	Headers                map[string]string `yaml:"headers,omitempty"`
	Cookie                 string            `yaml:"cookie,omitempty"`
	Proxy                  string            `yaml:"proxy,omitempty"`
	RequestTimeoutSeconds  *int              `yaml:"requestTimeoutSeconds,omitempty"`
	MaxBodySize            *int64            `yaml:"maxBodySize,omitempty"`
	LocalFilesRoot         string            `yaml:"localFilesRoot,omitempty"`
}

// LoadConfigFile reads the YAML file at path. Unknown keys are rejected so
// that typos do not pass silently.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &f, nil
}

// FindConfigFile returns the configuration file to load:
//  1. configPath, when given (ErrConfigNotFound if it does not exist)
//  2. .webcrawler.yaml in the working directory
//  3. config.yaml in XDGConfigDir
//  4. .webcrawler.yaml in the home directory
//
// It returns "" and no error when none exists.
func FindConfigFile(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return configPath, nil
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", nil
}

// ApplyTo copies every key present in the file onto c.
// Headers are merged; list keys replace the defaults.
func (f *File) ApplyTo(c *Config) {
	if f.StartPages != nil {
		c.StartPages = append([]string(nil), f.StartPages...)
	}
	if f.IgnoredURLs != nil {
		c.IgnoredURLs = append([]string(nil), f.IgnoredURLs...)
	}
	if f.IgnoredWords != nil {
		c.IgnoredWords = append([]string(nil), f.IgnoredWords...)
	}
	if f.Parallelism != nil {
		c.Parallelism = *f.Parallelism
	}
	if f.ImplementationOverride != "" {
		c.ImplementationOverride = f.ImplementationOverride
	}
	if f.MaxDepth != nil {
		c.MaxDepth = *f.MaxDepth
	}
	if f.TimeoutSeconds != nil {
		c.Timeout = time.Duration(*f.TimeoutSeconds) * time.Second
	}
	if f.PopularWordCount != nil {
		c.PopularWordCount = *f.PopularWordCount
	}
	if f.ProfileOutputPath != "" {
		c.ProfileOutputPath = f.ProfileOutputPath
	}
	if f.ResultPath != "" {
		c.ResultPath = f.ResultPath
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if len(f.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Headers))
		}
		maps.Copy(c.Headers, f.Headers)
	}
	if f.Cookie != "" {
		c.Cookie = f.Cookie
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if f.RequestTimeoutSeconds != nil {
		c.RequestTimeout = time.Duration(*f.RequestTimeoutSeconds) * time.Second
	}
	if f.MaxBodySize != nil {
		c.MaxBodySize = *f.MaxBodySize
	}
	if f.LocalFilesRoot != "" {
		c.LocalFilesRoot = f.LocalFilesRoot
	}
}
