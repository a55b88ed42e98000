package main

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/notedb"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"
)

// loadEnvFiles reads .env and .env.local into the environment. Missing
// files are ignored.
func loadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// loadConfig layers the database settings: the --db flag over NOTEDB_*
// environment variables over the optional config file.
func loadConfig(c *cli.Context) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("notedb")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := c.String("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if c.IsSet("db") {
		v.Set("db", c.String("db"))
	}
	return v, nil
}

// databaseConfig builds the notedb configuration from the layered settings.
func databaseConfig(v *viper.Viper) (*notedb.Config, error) {
	cfg := notedb.DefaultConfig()
	cfg.Path = v.GetString("db")
	if name := v.GetString("name"); name != "" {
		cfg.Name = name
	}
	if version := v.GetUint64("version"); version != 0 {
		cfg.Version = version
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required: use --db or NOTEDB_DB")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
