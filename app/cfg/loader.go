package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"ingest_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"ingest_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"fantasy_report" description:"Database name"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the ingest trigger (optional)"`
	RulesFile    string `long:"rules-file" env:"RULES_FILE" description:"YAML file overriding admission rules and classifier tables (optional)"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"4" description:"Number of concurrent source workers per batch"`
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"12" description:"Per-attempt HTTP timeout in seconds"`
	FetchRetries int    `long:"fetch-retries" env:"FETCH_RETRIES" default:"2" description:"Extra HTTP attempts after the first"`
	ItemCap      int    `long:"item-cap" env:"ITEM_CAP" default:"150" description:"Maximum items processed per source per batch"`
	Oneshot      bool   `long:"oneshot" env:"ONESHOT" description:"Run a single ingest batch and exit"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"FantasyReportBot/1.0 (+https://www.fantasy-report.com)" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:       raw.DBHost,
		DBPort:       raw.DBPort,
		DBUser:       raw.DBUser,
		DBPassword:   raw.DBPassword,
		DBName:       raw.DBName,
		Port:         raw.Port,
		APIAccessKey: raw.APIAccessKey,
		RulesFile:    raw.RulesFile,
		WorkerCount:  raw.WorkerCount,
		FetchTimeout: raw.FetchTimeout,
		FetchRetries: raw.FetchRetries,
		ItemCap:      raw.ItemCap,
		Oneshot:      raw.Oneshot,
		UserAgent:    raw.UserAgent,
		Debug:        raw.Debug,
		Version:      GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
