// Package config provides configuration for the escort chess binaries.
package config

import (
	"io"
	"os"
)

// Config holds all program configuration.
type Config struct {
	Board   *BoardConfig
	Motion  *MotionConfig
	Server  *ServerConfig
	Storage *StorageConfig
	Log     *LogConfig

	// Output streams
	OutputFile io.Writer
	LogFile    io.Writer
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Board:      NewBoardConfig(),
		Motion:     NewMotionConfig(),
		Server:     NewServerConfig(),
		Storage:    NewStorageConfig(),
		Log:        NewLogConfig(),
		OutputFile: os.Stdout,
		LogFile:    os.Stderr,
	}
}

// Validate checks every sub-configuration.
func (c *Config) Validate() error {
	if err := c.Board.Validate(); err != nil {
		return err
	}
	if err := c.Motion.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// SetOutput sets the output writer.
func (c *Config) SetOutput(w io.Writer) {
	c.OutputFile = w
}
