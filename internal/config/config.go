// Package config loads omnimedia settings from defaults, a TOML file, the
// environment and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Name is the config file base name and the environment prefix.
const Name = "omnimedia"

// Keys.
const (
	LogLevel         = "log.level"
	LogJSON          = "log.json"
	RendererName     = "renderer.name"
	RendererHost     = "renderer.host"
	RendererPort     = "renderer.port"
	RendererMDNS     = "renderer.mdns"
	PlayerName       = "player.name"
	PlayerAutoplay   = "player.autoplay"
	DiscoveryTimeout = "discovery.timeout"
)

// EnvKeyReplacer maps keys to environment variable names.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Field is a setting with its default value.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Env returns the environment variable overriding the field.
func (f Field) Env() string {
	return strings.ToUpper(Name + "_" + EnvKeyReplacer.Replace(f.Key))
}

// Default holds every known field by key.
var Default = make(map[string]Field)

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("config: duplicate key " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
	}

	register(LogLevel, "info", "Log level: trace, debug, info, warn, error")
	register(LogJSON, false, "Log in JSON")
	register(RendererName, "Omnimedia", "Friendly name of the DLNA renderer")
	register(RendererHost, "", "Address to serve on; the default route address if empty")
	register(RendererPort, 2278, "Port to serve on")
	register(RendererMDNS, false, "Announce the renderer over mDNS")
	register(PlayerName, "", "MPRIS bus name of the player; the first one found if empty")
	register(PlayerAutoplay, false, "Start playback once media can play")
	register(DiscoveryTimeout, 5*time.Second, "How long to look for renderers")
}

// Fields returns the known fields ordered by key.
func Fields() []Field {
	keys := lo.Keys(Default)
	sort.Strings(keys)

	return lo.Map(keys, func(k string, _ int) Field { return Default[k] })
}

// Config holds the loaded settings.
type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"log"`

	Renderer struct {
		Name string `mapstructure:"name"`
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
		MDNS bool   `mapstructure:"mdns"`
	} `mapstructure:"renderer"`

	Player struct {
		Name     string `mapstructure:"name"`
		Autoplay bool   `mapstructure:"autoplay"`
	} `mapstructure:"player"`

	Discovery struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"discovery"`
}

// ErrNoConfigFile is returned when an explicit config file is missing.
var ErrNoConfigFile = errors.New("config: file not found")

type loader struct {
	v    *viper.Viper
	file string
}

// Option configures Load.
type Option func(*loader) error

// WithFile reads the config from path, which must exist, instead of
// searching the config directories.
func WithFile(path string) Option {
	return func(l *loader) error {
		l.file = path
		return nil
	}
}

// WithFlag lets flag override key when it is set on the command line.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(l *loader) error {
		if flag == nil {
			return nil
		}
		return l.v.BindPFlag(key, flag)
	}
}

// Dirs returns the directories searched for omnimedia.toml.
func Dirs() []string {
	dirs := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(dir, Name))
	}

	return dirs
}

// Load reads the config from fs. A missing config file is not an error
// unless it was given explicitly.
func Load(fs afero.Fs, opts ...Option) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigName(Name)
	v.SetConfigType("toml")
	for _, dir := range Dirs() {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(Name)
	v.SetEnvKeyReplacer(EnvKeyReplacer)
	v.AutomaticEnv()

	v.SetTypeByDefaultValue(true)
	for k, f := range Default {
		v.SetDefault(k, f.Value)
	}

	l := &loader{v: v}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if l.file != "" {
		if ok, _ := afero.Exists(fs, l.file); !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoConfigFile, l.file)
		}
		v.SetConfigFile(l.file)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
