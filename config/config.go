package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const FileName = "mclaunch.toml"

type Memory struct {
	MinMB int `toml:"min_mb"`
	MaxMB int `toml:"max_mb"`
}

type Resolution struct {
	Width      int  `toml:"width"`
	Height     int  `toml:"height"`
	Fullscreen bool `toml:"fullscreen"`
}

type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type Http struct {
	Timeout string `toml:"timeout"`
	Retries int    `toml:"retries"`
}

type Ping struct {
	Timeout string `toml:"timeout"`
}

// Settings is the launcher settings file. Zero values are replaced by
// defaults on load.
type Settings struct {
	GameDir         string     `toml:"game_dir"`
	JavaPath        string     `toml:"java_path"`
	Memory          Memory     `toml:"memory"`
	JvmArgs         []string   `toml:"jvm_args"`
	Resolution      Resolution `toml:"resolution"`
	Server          Server     `toml:"server"`
	SelectedVersion string     `toml:"selected_version"`
	LogLevel        string     `toml:"log_level"`
	Http            Http       `toml:"http"`
	Ping            Ping       `toml:"ping"`
}

var defaultJvmArgs = []string{
	"-XX:+UnlockExperimentalVMOptions",
	"-XX:+UseG1GC",
	"-XX:G1NewSizePercent=20",
	"-XX:G1ReservePercent=20",
	"-XX:MaxGCPauseMillis=50",
	"-XX:G1HeapRegionSize=32M",
}

func Defaults() Settings {
	return Settings{
		GameDir:    DefaultGameDir(),
		JavaPath:   "java",
		Memory:     Memory{MinMB: 1024, MaxMB: 4096},
		JvmArgs:    append([]string(nil), defaultJvmArgs...),
		Resolution: Resolution{Width: 1280, Height: 720},
		Server:     Server{Port: 25565},
		LogLevel:   "info",
		Http:       Http{Timeout: "30s", Retries: 2},
		Ping:       Ping{Timeout: "5s"},
	}
}

// DefaultGameDir is the directory the official launcher uses on this OS.
func DefaultGameDir() string {
	return gameDirFor(runtime.GOOS, os.Getenv("APPDATA"), homeDir())
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func gameDirFor(goos string, appData string, home string) string {
	switch goos {
	case "windows":
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, ".minecraft")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "minecraft")
	default:
		return filepath.Join(home, ".minecraft")
	}
}

// DefaultPath is where the settings file lives when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = homeDir()
	}
	return filepath.Join(dir, "mclaunch", FileName)
}

// LoadEnv reads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadEnv(files ...string) error {
	var existing []string
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load reads the settings file at path. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	settings := Defaults()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, err
	}

	var loaded Settings
	if err := toml.Unmarshal(b, &loaded); err != nil {
		return settings, fmt.Errorf("parse %s: %w", path, err)
	}
	settings.merge(loaded)
	return settings, settings.Validate()
}

func (s *Settings) merge(o Settings) {
	if o.GameDir != "" {
		s.GameDir = o.GameDir
	}
	if o.JavaPath != "" {
		s.JavaPath = o.JavaPath
	}
	if o.Memory.MinMB > 0 {
		s.Memory.MinMB = o.Memory.MinMB
	}
	if o.Memory.MaxMB > 0 {
		s.Memory.MaxMB = o.Memory.MaxMB
	}
	if o.JvmArgs != nil {
		s.JvmArgs = o.JvmArgs
	}
	if o.Resolution.Width > 0 && o.Resolution.Height > 0 {
		s.Resolution.Width = o.Resolution.Width
		s.Resolution.Height = o.Resolution.Height
	}
	s.Resolution.Fullscreen = o.Resolution.Fullscreen
	if o.Server.Host != "" {
		s.Server.Host = o.Server.Host
	}
	if o.Server.Port > 0 {
		s.Server.Port = o.Server.Port
	}
	s.SelectedVersion = o.SelectedVersion
	if o.LogLevel != "" {
		s.LogLevel = o.LogLevel
	}
	if o.Http.Timeout != "" {
		s.Http.Timeout = o.Http.Timeout
	}
	if o.Http.Retries > 0 {
		s.Http.Retries = o.Http.Retries
	}
	if o.Ping.Timeout != "" {
		s.Ping.Timeout = o.Ping.Timeout
	}
}

func (s Settings) Validate() error {
	if s.Memory.MinMB > s.Memory.MaxMB {
		return fmt.Errorf("memory.min_mb (%d) is larger than memory.max_mb (%d)", s.Memory.MinMB, s.Memory.MaxMB)
	}
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", s.Server.Port)
	}
	if _, err := time.ParseDuration(s.Http.Timeout); err != nil {
		return fmt.Errorf("http.timeout: %w", err)
	}
	if _, err := time.ParseDuration(s.Ping.Timeout); err != nil {
		return fmt.Errorf("ping.timeout: %w", err)
	}
	return nil
}

func (s Settings) HttpTimeout() time.Duration {
	d, err := time.ParseDuration(s.Http.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

func (s Settings) PingTimeout() time.Duration {
	d, err := time.ParseDuration(s.Ping.Timeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

func Save(path string, s Settings) error {
	b, err := toml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
