// Package config holds the settings of a crawl run: the defaults, the YAML
// configuration file, and validation.
//
// Settings are layered. NewConfig supplies defaults, a configuration file
// found by FindConfigFile overrides them through File.ApplyTo, and the CLI
// finally overrides both with the flags the user set explicitly.
package config
