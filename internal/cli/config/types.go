// Package config provides configuration management for the odekit CLI.
//
// Configuration is layered: built-in defaults, then an odekit.yaml file,
// then ODEKIT_* environment variables, then command-line flags. The loaded
// Config is stored for command access, and the logger travels through the
// command context.
package config

// Config holds all CLI configuration options.
type Config struct {
	XPPautPath   string `koanf:"xppaut"`
	WorkDir      string `koanf:"workdir"`
	StatePath    string `koanf:"state_path"`
	KeepFiles    bool   `koanf:"keep_files"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the directory all relative paths resolve against.
	// It is inferred at load time, never read from the file.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultXPPautPath = "xppaut"
	DefaultWorkDir    = "."
	DefaultStateFile  = ".odekit/state.db"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
