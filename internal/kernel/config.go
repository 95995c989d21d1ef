package kernel

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the kernel's boot-time configuration: resource ceilings,
// queue sizing, the commit-log sink choice, and the debug-audit flag.
// Loaded via spf13/viper the way phenix loads its own config (YAML file
// plus environment overrides), rather than hand-rolled flag parsing.
type Config struct {
	// AuditEveryCall runs internal/invariant's full sweep after every
	// syscall when true. Expensive; meant for tests and debug builds,
	// never a production default.
	AuditEveryCall bool `mapstructure:"audit-every-call"`

	// CommitSink selects the commit.Sink implementation: "mem" (default,
	// the only choice on the cooperative/WASM host) or "bolt" (native
	// build only, persists to CommitSinkPath).
	CommitSink     string `mapstructure:"commit-sink"`
	CommitSinkPath string `mapstructure:"commit-sink-path"`

	// DefaultQueueDepth is the endpoint max_depth used when a caller
	// doesn't specify one explicitly.
	DefaultQueueDepth int `mapstructure:"default-queue-depth"`

	// MaxProcesses and MaxEndpoints bound total kernel-wide object
	// counts, independent of any one process's per-resource Limits.
	MaxProcesses int `mapstructure:"max-processes"`
	MaxEndpoints int `mapstructure:"max-endpoints"`

	// LogLevel names the minimum klog.Level a boot's stdout logger
	// emits; parsed with klog.ParseLevel by the command that sets up
	// logging, not by this package itself, since internal/kernel has
	// no logger of its own to configure.
	LogLevel string `mapstructure:"log-level"`
}

// DefaultConfig mirrors process.DefaultLimits' philosophy: generous
// enough to never surprise a test, conservative enough to catch a
// runaway allocation loop.
func DefaultConfig() Config {
	return Config{
		AuditEveryCall:    false,
		CommitSink:        "mem",
		CommitSinkPath:    "zero-os.commitlog",
		DefaultQueueDepth: 256,
		MaxProcesses:      4096,
		MaxEndpoints:      16384,
		LogLevel:          "info",
	}
}

// LoadConfig reads path (if it exists) over DefaultConfig, with
// ZEROOS_-prefixed environment variables taking precedence -- the same
// override order phenix's cmd/root.go establishes for its own viper
// instance.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("zeroos")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("audit-every-call", cfg.AuditEveryCall)
	v.SetDefault("commit-sink", cfg.CommitSink)
	v.SetDefault("commit-sink-path", cfg.CommitSinkPath)
	v.SetDefault("default-queue-depth", cfg.DefaultQueueDepth)
	v.SetDefault("max-processes", cfg.MaxProcesses)
	v.SetDefault("max-endpoints", cfg.MaxEndpoints)
	v.SetDefault("log-level", cfg.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound && !os.IsNotExist(err) {
				return cfg, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
