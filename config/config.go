package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Session  SessionConfig  `yaml:"session"`
	Producer ProducerConfig `yaml:"producer"`
	Engine   EngineConfig   `yaml:"engine"`
}

// Holds session-specific configuration
type SessionConfig struct {
	Level             int8   `yaml:"level"`              // Compression level (-7 to 22)
	WindowLog         uint8  `yaml:"window_log"`         // Match window, power of two
	MaxSequences      uint32 `yaml:"max_sequences"`      // Per-call sequence buffer cap
	ValidateSequences bool   `yaml:"validate_sequences"` // Re-check adopted parses
	Seed              uint64 `yaml:"seed"`               // Stream checksum seed
}

// Holds reference producer configuration
type ProducerConfig struct {
	Checksum  bool  `yaml:"checksum"`  // Service the checksum slot in-band
	Histogram bool  `yaml:"histogram"` // Service the histogram slot in-band
	HashLog   uint8 `yaml:"hash_log"`  // Match table size, power of two
}

// Holds compression engine configuration
type EngineConfig struct {
	EncoderConcurrency uint8 `yaml:"encoder_concurrency"` // Encoder workers (0 = all cores)
	DecoderConcurrency uint8 `yaml:"decoder_concurrency"` // Decoder workers (0 = all cores)
}

// Returns a Config struct with reasonable default values.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Level:             3,
			WindowLog:         20, // 1MB window
			MaxSequences:      1 << 18,
			ValidateSequences: true,
		},
		Producer: ProducerConfig{
			Checksum:  true,
			Histogram: true,
			HashLog:   15, // 32K buckets
		},
	}
}

// Loads configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Read the config file
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Initialize a new Config struct
	var config Config

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func validateConfig(config *Config) error {
	if err := validateSessionConfig(&config.Session); err != nil {
		return fmt.Errorf("invalid session configuration: %w", err)
	}

	if err := validateProducerConfig(&config.Producer); err != nil {
		return fmt.Errorf("invalid producer configuration: %w", err)
	}

	return nil
}

func validateSessionConfig(config *SessionConfig) error {
	if config.Level < -7 || config.Level > 22 {
		return fmt.Errorf("level must be between -7 and 22")
	}

	if config.WindowLog != 0 && (config.WindowLog < 10 || config.WindowLog > 31) {
		return fmt.Errorf("window_log must be between 10 and 31")
	}

	if config.MaxSequences != 0 && config.MaxSequences < 16 {
		return fmt.Errorf("max_sequences must be at least 16")
	}

	return nil
}

func validateProducerConfig(config *ProducerConfig) error {
	if config.HashLog != 0 && (config.HashLog < 8 || config.HashLog > 24) {
		return fmt.Errorf("hash_log must be between 8 and 24")
	}

	return nil
}
