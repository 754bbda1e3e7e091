package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type BackendType string

const (
	BackendONNX   BackendType = "onnx"
	BackendRemote BackendType = "remote"
	BackendStatic BackendType = "static"
)

const (
	DefaultConfigPath string = "config.json"
	DefaultRemoteHost string = "localhost:8080"
	DefaultSamplesDir string = "sample_images"
	DefaultModelURL   string = "https://github.com/onnx/models/raw/main/validated/vision/object_detection_segmentation/ssd-mobilenetv1/model/ssd_mobilenet_v1_12.onnx"
	DefaultInputSize  int    = 300
)

const (
	DefaultThreshold   = 0.5
	MinSliderThreshold = 0.1
	MaxThreshold       = 1.0
	ThresholdStep      = 0.05
)

var BackendsList = [...]string{
	string(BackendONNX),
	string(BackendRemote),
	string(BackendStatic),
}

type ModelConfig struct {
	URL        string `json:"url"`
	CacheDir   string `json:"cache_dir"`
	ORTLibrary string `json:"ort_library"`
	InputSize  int    `json:"input_size"`
	Threads    int    `json:"threads"`
}

type RemoteConfig struct {
	Host string `json:"host"`
	Path string `json:"path"`
}

type StaticConfig struct {
	CandidatesFile string `json:"candidates_file"`
}

type WindowConfig struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

type Config struct {
	mu   sync.RWMutex
	path string

	Backend    BackendType `json:"backend"`
	Threshold  float64     `json:"threshold"`
	SamplesDir string      `json:"samples_dir"`
	LogLevel   string      `json:"log_level"`

	Model  ModelConfig  `json:"model"`
	Remote RemoteConfig `json:"remote"`
	Static StaticConfig `json:"static"`
	Window WindowConfig `json:"window"`
}

func (c *Config) GetThreshold() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Threshold
}

// SetThreshold stores t clamped into [0, 1].
func (c *Config) SetThreshold(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Threshold = ClampThreshold(t)
}

func (c *Config) GetBackend() BackendType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Backend
}

func (c *Config) SetBackend(b BackendType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Backend = b
}

func (c *Config) GetSamplesDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.SamplesDir
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.Backend {
	case BackendONNX:
		if c.Model.URL == "" {
			return errors.New("model url is required for the onnx backend")
		}
	case BackendRemote:
		if c.Remote.Host == "" {
			return errors.New("remote host is required for the remote backend")
		}
	case BackendStatic:
	default:
		return errors.Errorf("unknown backend %q, want one of %s", c.Backend, strings.Join(BackendsList[:], ", "))
	}
	if c.Model.InputSize <= 0 {
		return errors.Errorf("model input size must be positive, got %d", c.Model.InputSize)
	}
	return nil
}

// Merge applies every key explicitly set in v (flags, env or config file) on top of c.
func (c *Config) Merge(v *viper.Viper) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v.IsSet("threshold") {
		c.Threshold = ClampThreshold(v.GetFloat64("threshold"))
	}
	if v.IsSet("backend") {
		c.Backend = BackendType(v.GetString("backend"))
	}
	if v.IsSet("samples_dir") {
		c.SamplesDir = v.GetString("samples_dir")
	}
	if v.IsSet("log_level") {
		c.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("model.url") {
		c.Model.URL = v.GetString("model.url")
	}
	if v.IsSet("model.cache_dir") {
		c.Model.CacheDir = v.GetString("model.cache_dir")
	}
	if v.IsSet("model.ort_library") {
		c.Model.ORTLibrary = v.GetString("model.ort_library")
	}
	if v.IsSet("model.input_size") {
		c.Model.InputSize = v.GetInt("model.input_size")
	}
	if v.IsSet("model.threads") {
		c.Model.Threads = v.GetInt("model.threads")
	}
	if v.IsSet("remote.host") {
		c.Remote.Host = v.GetString("remote.host")
	}
	if v.IsSet("remote.path") {
		c.Remote.Path = v.GetString("remote.path")
	}
	if v.IsSet("static.candidates_file") {
		c.Static.CandidatesFile = v.GetString("static.candidates_file")
	}
}

func (c *Config) Save(path string) error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "encode config")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create config dir")
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write temp config")
	}
	return errors.Wrap(os.Rename(tmp, path), "rename config")
}

// SaveByDefault writes back to the file the config was loaded from.
func (c *Config) SaveByDefault() error {
	if c.path == "" {
		return c.Save(DefaultConfigPath)
	}
	return c.Save(c.path)
}

// LoadConfigFile reads path on top of the defaults. A missing or broken file yields the defaults.
func LoadConfigFile(path string) *Config {
	cfg := NewDefaultConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		cfg = NewDefaultConfig()
		cfg.path = path
		return cfg
	}
	cfg.Threshold = ClampThreshold(cfg.Threshold)
	if cfg.Model.InputSize <= 0 {
		cfg.Model.InputSize = DefaultInputSize
	}
	return cfg
}

func NewDefaultConfig() *Config {
	return &Config{
		Backend:    BackendONNX,
		Threshold:  DefaultThreshold,
		SamplesDir: DefaultSamplesDir,
		LogLevel:   "info",
		Model: ModelConfig{
			URL:       DefaultModelURL,
			CacheDir:  defaultCacheDir(),
			InputSize: DefaultInputSize,
			Threads:   1,
		},
		Remote: RemoteConfig{Host: DefaultRemoteHost, Path: "/ws"},
		Window: WindowConfig{Width: 1200, Height: 760},
	}
}

// ClampThreshold maps any value, including NaN, into [0, 1].
func ClampThreshold(t float64) float64 {
	switch {
	case t != t:
		return DefaultThreshold
	case t < 0:
		return 0
	case t > MaxThreshold:
		return MaxThreshold
	}
	return t
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".cache", "ssdetect")
	}
	return filepath.Join(dir, "ssdetect", "models")
}
