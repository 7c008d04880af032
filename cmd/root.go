package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	apiURL    string
	dbPath    string
	redisURL  string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "case-board",
	Short: "Terminal client for a case tracking backend",
	Long: `case-board manages support and incident cases stored by a REST backend.

It offers:
- list/show/create/edit/delete commands for scripting
- an interactive terminal board (case-board tui)
- a reference backend with SQLite storage (case-board serve)
- bulk import of case files, one-shot or watched (case-board import)
- a live feed of case changes over Redis Streams (case-board events)

The backend URL comes from --api-url, CASEBOARD_API_URL or api.url in the
config file, and defaults to http://localhost:8080.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.case-board.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "Base URL of the case backend")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./data/case-board.db", "SQLite database path (serve, history)")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "Redis connection URL for case change events, e.g. redis://localhost:6379")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")

	// Bind flags to viper
	viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("redis.url", rootCmd.PersistentFlags().Lookup("redis"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory and cwd with name ".case-board" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".case-board")
	}

	// CASEBOARD_API_URL -> api.url, CASEBOARD_DATABASE_PATH -> database.path, ...
	viper.SetEnvPrefix("CASEBOARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	// Set defaults
	viper.SetDefault("api.url", "http://localhost:8080")
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("database.path", "./data/case-board.db")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("server.addr", "127.0.0.1:8080")
	viper.SetDefault("board.empty_on_error", true)
	viper.SetDefault("ui.theme", "dark")
}

// GetConfig returns the current configuration values
func GetConfig() Config {
	return Config{
		API: APIConfig{
			URL: viper.GetString("api.url"),
		},
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
		Database: DatabaseConfig{
			Path: viper.GetString("database.path"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("redis.url"),
		},
		Server: ServerConfig{
			Addr: viper.GetString("server.addr"),
		},
		Board: BoardConfig{
			EmptyOnError: viper.GetBool("board.empty_on_error"),
		},
		UI: UIConfig{
			Theme: viper.GetString("ui.theme"),
		},
	}
}

// Config represents the application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Board    BoardConfig    `mapstructure:"board"`
	UI       UIConfig       `mapstructure:"ui"`
}

type APIConfig struct {
	URL string `mapstructure:"url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type BoardConfig struct {
	// EmptyOnError shows an empty board when the case list cannot be loaded.
	EmptyOnError bool `mapstructure:"empty_on_error"`
}

type UIConfig struct {
	Theme string `mapstructure:"theme"`
}
