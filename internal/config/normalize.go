package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeBW()
	if err := c.normalizeExport(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeBW() {
	if value, ok := os.LookupEnv("BWEXPORT_BW_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.BW.Binary = value
	}
	c.BW.Binary = strings.TrimSpace(c.BW.Binary)
	c.BW.SessionEnv = strings.TrimSpace(c.BW.SessionEnv)
}

func (c *Config) normalizeExport() error {
	if strings.TrimSpace(c.Export.Destination) == "" {
		c.Export.Destination = defaultDestination
	}
	var err error
	if c.Export.Destination, err = expandPath(strings.TrimSpace(c.Export.Destination)); err != nil {
		return fmt.Errorf("export.destination: %w", err)
	}
	c.Export.CatalogFile = strings.TrimSpace(c.Export.CatalogFile)
	if c.Export.CatalogFile == "" {
		c.Export.CatalogFile = defaultCatalogFile
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
