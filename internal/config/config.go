package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConf        `yaml:"redis"`
	Remote     RemoteConfig     `yaml:"remote"`
	Cache      CacheConfig      `yaml:"cache"`
	Pagination PaginationConfig `yaml:"pagination"`
	Gallery    GalleryConfig    `yaml:"gallery"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env-default:"8080"`
}

type StorageConfig struct {
	// Backend: "redis" или "memory"
	Backend             string `yaml:"backend" env-default:"memory"`
	MemoryCapacityBytes int    `yaml:"memory_capacity_bytes" env-default:"0"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redispassword"`
	RedisDB       int    `yaml:"redis_db"`
}

type RemoteConfig struct {
	BaseURL    string        `yaml:"base_url" env-required:"true"`
	DatabaseID string        `yaml:"database_id" env-required:"true"`
	Timeout    time.Duration `yaml:"timeout" env-default:"10s"`
	Sort       string        `yaml:"sort" env-default:"descending"`
}

type CacheConfig struct {
	PhotoListTTL   time.Duration `yaml:"photo_list_ttl" env-default:"8h"`
	PaginationTTL  time.Duration `yaml:"pagination_ttl" env-default:"4h"`
	SinglePhotoTTL time.Duration `yaml:"single_photo_ttl" env-default:"72h"`
	SweepInterval  time.Duration `yaml:"sweep_interval" env-default:"1h"`
}

type PaginationConfig struct {
	PageSize           int           `yaml:"page_size" env-default:"9"`
	BottomThresholdPx  float64       `yaml:"bottom_threshold_px" env-default:"10"`
	LookaheadPx        float64       `yaml:"lookahead_px" env-default:"500"`
	Debounce           time.Duration `yaml:"debounce" env-default:"300ms"`
	NarrowBreakpointPx float64       `yaml:"narrow_breakpoint_px" env-default:"992"`
}

type GalleryConfig struct {
	Container string `yaml:"container" env-default:"photo-wall"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
