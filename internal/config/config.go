package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	IndexFile         string        `mapstructure:"index_file" yaml:"index_file"`
	Storage           Storage       `mapstructure:"storage" yaml:"storage"`
}

// Storage selects and parameterizes the room store backend.
type Storage struct {
	// Backend is "file" (append-only chat_<room>.txt files) or "table"
	// (relational messages table).
	Backend string `mapstructure:"backend" yaml:"backend"`
	// DataDir is the directory holding room files; also the directory the
	// migration job scans.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// Driver is the database/sql driver for the table backend: "sqlite3",
	// "mysql", or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`
	// DSN is passed verbatim to the driver. MySQL DSNs need parseTime=true.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// Storage backend selectors.
const (
	BackendFile  = "file"
	BackendTable = "table"
)

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		IndexFile:         "web/index.html",
		Storage: Storage{
			Backend: BackendFile,
			DataDir: ".",
			Driver:  "sqlite3",
			DSN:     "chat.db?_journal_mode=WAL&_busy_timeout=5000",
		},
	}
}
