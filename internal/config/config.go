// Package config loads settings from flags, PADVIEW_* environment variables
// and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "PADVIEW"
	fileName  = "padview"
)

var ErrInvalid = errors.New("invalid config")

// reservedPaths are routed by the server itself.
var reservedPaths = map[string]bool{"/": true, "/ws": true}

type Config struct {
	Server  Server  `mapstructure:"server"`
	Poll    Poll    `mapstructure:"poll"`
	Log     Log     `mapstructure:"log"`
	Metrics Metrics `mapstructure:"metrics"`
	Tray    Tray    `mapstructure:"tray"`
}

type Server struct {
	Addr        string `mapstructure:"addr"`
	OpenBrowser bool   `mapstructure:"open_browser"`
}

type Poll struct {
	FrameRate int           `mapstructure:"frame_rate"`
	Interval  time.Duration `mapstructure:"interval"`
	Slots     int           `mapstructure:"slots"`

	// SDLLibrary overrides the name or path of the SDL3 shared library.
	SDLLibrary string `mapstructure:"sdl_library"`
}

// FrameInterval is the time between two loop frames.
func (p Poll) FrameInterval() time.Duration { return time.Second / time.Duration(p.FrameRate) }

type Log struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	NoColor bool   `mapstructure:"no_color"`
	Input   bool   `mapstructure:"input"`
}

type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type Tray struct {
	Enabled bool `mapstructure:"enabled"`
}

// URL is the address a browser should open.
func (c *Config) URL() string {
	addr := c.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Poll.FrameRate < 1 || c.Poll.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("poll.frame_rate %d not in 1..240", c.Poll.FrameRate))
	}
	if c.Poll.Interval <= 0 {
		errs = append(errs, fmt.Errorf("poll.interval %v must be positive", c.Poll.Interval))
	}
	if c.Poll.Slots < 1 || c.Poll.Slots > 16 {
		errs = append(errs, fmt.Errorf("poll.slots %d not in 1..16", c.Poll.Slots))
	}
	if c.Metrics.Enabled {
		switch {
		case !strings.HasPrefix(c.Metrics.Path, "/"):
			errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
		case reservedPaths[c.Metrics.Path]:
			errs = append(errs, fmt.Errorf("metrics.path %q is used by the viewer", c.Metrics.Path))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// setDefaults fills every key. A gui start (double-clicked, no terminal)
// shows the tray and opens the browser by default.
func setDefaults(v *viper.Viper, gui bool) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.open_browser", gui)
	v.SetDefault("poll.frame_rate", 60)
	v.SetDefault("poll.interval", 16*time.Millisecond)
	v.SetDefault("poll.slots", 4)
	v.SetDefault("poll.sdl_library", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.no_color", false)
	v.SetDefault("log.input", false)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("tray.enabled", gui || runtime.GOOS == "windows")
}

// flags maps command line flags to config keys.
var flags = []struct {
	name, key, usage string
	kind             any
}{
	{"addr", "server.addr", "HTTP listen address", ""},
	{"open", "server.open_browser", "open the viewer in a browser at start", false},
	{"frame-rate", "poll.frame_rate", "frames per second of the highlight loop", 0},
	{"poll-interval", "poll.interval", "controller polling interval", time.Duration(0)},
	{"slots", "poll.slots", "number of controller slots", 0},
	{"sdl-library", "poll.sdl_library", "name or path of the SDL3 library", ""},
	{"log-level", "log.level", "log level (trace, debug, info, warn, error)", ""},
	{"log-console", "log.console", "human readable log output", false},
	{"log-input", "log.input", "log every change of the highlighted controls", false},
	{"metrics", "metrics.enabled", "serve Prometheus metrics", false},
	{"tray", "tray.enabled", "show a system tray icon", false},
}

// Load reads the configuration for the given command line arguments. gui
// selects the defaults of a start without a terminal. The returned viper
// instance is needed by Watch.
func Load(args []string, gui bool) (*Config, *viper.Viper, error) {
	fs := pflag.NewFlagSet(fileName, pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "path to a YAML config file")
	for _, f := range flags {
		switch f.kind.(type) {
		case string:
			fs.String(f.name, "", f.usage)
		case bool:
			fs.Bool(f.name, false, f.usage)
		case int:
			fs.Int(f.name, 0, f.usage)
		case time.Duration:
			fs.Duration(f.name, 0, f.usage)
		}
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	v := viper.New()
	setDefaults(v, gui)
	for _, f := range flags {
		if err := v.BindPFlag(f.key, fs.Lookup(f.name)); err != nil {
			return nil, nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", fileName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch calls onChange with the new configuration every time the config file
// changes. Invalid files are reported through onError and ignored.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			onError(fmt.Errorf("reload %s: %w", e.Name, err))
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}
