// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store         StoreConfig       `yaml:"store" mapstructure:"store"`
	Tables        TablesConfig      `yaml:"tables" mapstructure:"tables"`
	Geocoding     GeocodingConfig   `yaml:"geocoding" mapstructure:"geocoding"`
	Search        SearchConfig      `yaml:"search" mapstructure:"search"`
	Performance   PerformanceConfig `yaml:"performance" mapstructure:"performance"`
	CountryCode   string            `yaml:"country_code" mapstructure:"country_code"`
	CountryName   string            `yaml:"country_name" mapstructure:"country_name"`
	PopularCities []string          `yaml:"popular_cities" mapstructure:"popular_cities"`
	Server        ServerConfig      `yaml:"server" mapstructure:"server"`
	Log           LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// TablesConfig overrides the entity table names. The tt_ prefix avoids
// collisions with host-application tables.
type TablesConfig struct {
	Divisions string `yaml:"divisions" mapstructure:"divisions"`
	Cities    string `yaml:"cities" mapstructure:"cities"`
	Addresses string `yaml:"addresses" mapstructure:"addresses"`
}

// GeocodingConfig configures the geocoding gateway.
type GeocodingConfig struct {
	Enabled   bool                 `yaml:"enabled" mapstructure:"enabled"`
	Driver    string               `yaml:"driver" mapstructure:"driver"` // null, nominatim, google, chain
	Queue     bool                 `yaml:"queue" mapstructure:"queue"`   // async dispatch vs inline
	Cache     GeocodingCacheConfig `yaml:"cache" mapstructure:"cache"`
	Google    GoogleConfig         `yaml:"google" mapstructure:"google"`
	Nominatim NominatimConfig      `yaml:"nominatim" mapstructure:"nominatim"`
}

// GeocodingCacheConfig configures result caching for provider calls.
type GeocodingCacheConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	TTLSeconds int  `yaml:"ttl" mapstructure:"ttl"`
}

// TTL returns the cache TTL as a duration.
func (c GeocodingCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// GoogleConfig holds Google Maps Geocoding API credentials.
type GoogleConfig struct {
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
}

// NominatimConfig holds OpenStreetMap Nominatim settings.
type NominatimConfig struct {
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig configures the search and autocomplete surface.
type SearchConfig struct {
	AutocompleteLimit         int `yaml:"autocomplete_limit" mapstructure:"autocomplete_limit"`
	CacheTTLSeconds           int `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	PopularCitiesCacheTTLSecs int `yaml:"popular_cities_cache_ttl" mapstructure:"popular_cities_cache_ttl"`
}

// PopularCitiesCacheTTL returns the popular-cities cache TTL as a duration.
func (c SearchConfig) PopularCitiesCacheTTL() time.Duration {
	return time.Duration(c.PopularCitiesCacheTTLSecs) * time.Second
}

// PerformanceConfig tunes query behavior.
type PerformanceConfig struct {
	MaxSearchRadiusKm float64 `yaml:"max_search_radius_km" mapstructure:"max_search_radius_km"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// defaultPopularCities is the curated suggestion ordering used when the
// config provides none.
var defaultPopularCities = []string{
	"Port of Spain",
	"San Fernando",
	"Chaguanas",
	"Arima",
	"Point Fortin",
	"Couva",
	"Sangre Grande",
	"Tunapuna",
	"Marabella",
	"Saint Joseph",
	"Diego Martin",
	"Penal",
	"Rio Claro",
	"Princes Town",
	"Siparia",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TT_ADDRESSES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("tables.divisions", "tt_divisions")
	v.SetDefault("tables.cities", "tt_cities")
	v.SetDefault("tables.addresses", "tt_addresses")
	v.SetDefault("geocoding.enabled", false)
	v.SetDefault("geocoding.driver", "null")
	v.SetDefault("geocoding.queue", true)
	v.SetDefault("geocoding.cache.enabled", true)
	v.SetDefault("geocoding.cache.ttl", 60*60*24*30) // 30 days
	v.SetDefault("geocoding.nominatim.user_agent", "tt-addresses/1.0")
	v.SetDefault("country_code", "TT")
	v.SetDefault("country_name", "Trinidad and Tobago")
	v.SetDefault("search.autocomplete_limit", 10)
	v.SetDefault("search.cache_ttl", 900)                 // 15 minutes
	v.SetDefault("search.popular_cities_cache_ttl", 3600) // 1 hour
	v.SetDefault("performance.max_search_radius_km", 100)
	v.SetDefault("popular_cities", defaultPopularCities)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
