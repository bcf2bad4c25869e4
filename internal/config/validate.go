package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBW(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBW() error {
	if strings.TrimSpace(c.BW.Binary) == "" {
		return errors.New("bw.binary must be set")
	}
	if c.BW.CommandTimeout < 0 {
		return errors.New("bw.command_timeout must be zero or positive")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.MaxParallel < 1 {
		return fmt.Errorf("export.max_parallel must be at least 1 (got %d)", c.Export.MaxParallel)
	}
	name := c.Export.CatalogFile
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("export.catalog_file must be a plain file name (got %q)", name)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
