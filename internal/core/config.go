package core

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/config/v2"
	"github.com/gookit/config/v2/yaml"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

type Server struct {
	ReadTimeout     time.Duration `config:"read_timeout"`
	WriteTimeout    time.Duration `config:"write_timeout"`
	ShutdownTimeout time.Duration `config:"shutdown_timeout"`
}

// Backend locates the todos table. The URL scheme picks the driver:
// http(s) for a PostgREST endpoint (Key required), postgres for a direct
// connection, sqlite or file for a local database.
type Backend struct {
	URL     string        `config:"url"`
	Key     string        `config:"key"`
	Timeout time.Duration `config:"timeout"`
}

type Broker struct {
	URL   string `config:"url"`
	Topic string `config:"topic"`
	Name  string `config:"name"`
}

type Session struct {
	Path     string `config:"path"`
	RedisURL string `config:"redis_url"`
}

type Log struct {
	Level  string `config:"level"`
	Format string `config:"format"`
	File   string `config:"file"`
}

type Config struct {
	Addr    string  `config:"addr"`
	Server  Server  `config:"server"`
	Backend Backend `config:"backend"`
	Broker  Broker  `config:"broker"`
	Session Session `config:"session"`
	Log     Log     `config:"log"`
}

func defaultConfig() *Config {
	sessionPath := ".taskflow/session.json"
	if home, err := os.UserHomeDir(); err == nil {
		sessionPath = filepath.Join(home, sessionPath)
	}

	return &Config{
		Addr: ":3000",
		Server: Server{
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Backend: Backend{Timeout: 10 * time.Second},
		Broker:  Broker{Topic: "taskflow-todos", Name: "taskflow"},
		Session: Session{Path: sessionPath},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// NewConfig loads path, then the matching config.local.yml if present, then
// the environment. An empty path means defaults plus environment only.
func NewConfig(path string) (*Config, error) {
	appConfig := defaultConfig()

	if path != "" {
		c := config.NewWithOptions("taskflow", func(opt *config.Options) {
			opt.ParseEnv = true
			opt.DecoderConfig.TagName = "config"
			opt.DecoderConfig.DecodeHook = mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			)
		})

		c.AddDriver(yaml.Driver)

		if err := c.LoadFiles(path); err != nil {
			return nil, err
		}

		if err := c.LoadExists(localPath(path)); err != nil {
			return nil, err
		}

		if err := c.BindStruct("", appConfig); err != nil {
			return nil, err
		}
	}

	loadFromEnv(appConfig)

	return appConfig, nil
}

func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}

	return nil
}

func loadFromEnv(cfg *Config) {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	setString(&cfg.Addr, "TASKFLOW_ADDR")
	setString(&cfg.Backend.URL, "TASKFLOW_BACKEND_URL", "SUPABASE_URL")
	setString(&cfg.Backend.Key, "TASKFLOW_BACKEND_KEY", "SUPABASE_ANON_KEY")
	setString(&cfg.Broker.URL, "TASKFLOW_BROKER_URL")
	setString(&cfg.Broker.Topic, "TASKFLOW_BROKER_TOPIC")
	setString(&cfg.Session.Path, "TASKFLOW_SESSION_PATH")
	setString(&cfg.Session.RedisURL, "TASKFLOW_REDIS_URL")
	setString(&cfg.Log.Level, "TASKFLOW_LOG_LEVEL")
	setString(&cfg.Log.Format, "TASKFLOW_LOG_FORMAT")
	setString(&cfg.Log.File, "TASKFLOW_LOG_FILE")
}
