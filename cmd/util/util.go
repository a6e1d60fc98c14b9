package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dotset/lib/manager"
	"github.com/ValentinKolb/dotset/rpc/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (DOTSET_STORE, ...)
	EnvPrefix = "dotset"
)

var (
	// ConfigFile is the optional config file given with --config
	ConfigFile string

	// configErr keeps the error of InitConfig until a command can return it
	configErr error
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupBackendFlags adds the flags selecting and configuring the settings backend to a command
func SetupBackendFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	key := "store"
	flags.String(key, manager.DefaultDriver, WrapString("The settings driver (json, database, memory, redis, remote). 'db' and 'array' are accepted as aliases"))

	key = "path"
	flags.String(key, manager.DefaultPath, WrapString("(json) Path of the settings file. For shards of the serve command {shard} is replaced by the shard id"))

	key = "db-driver"
	flags.String(key, "sqlite3", WrapString("(database) The sql dialect (sqlite3, postgres)"))

	key = "db-dsn"
	flags.String(key, "settings.db", WrapString("(database) The data source name, a file for sqlite3 or a connection string for postgres"))

	key = "table"
	flags.String(key, "settings", WrapString("(database) The settings table"))

	key = "key-column"
	flags.String(key, "key", WrapString("(database) The column holding the dotted keys"))

	key = "value-column"
	flags.String(key, "value", WrapString("(database) The column holding the values"))

	key = "scope"
	flags.StringSlice(key, nil, WrapString("(database) Extra columns that scope the settings, format column=value. Can be repeated or given as a comma-separated list"))

	key = "db-migrate"
	flags.Bool(key, false, WrapString("(database) Create the settings table if it does not exist"))

	key = "redis-addr"
	flags.String(key, "localhost:6379", WrapString("(redis) Address of the redis server, host:port or a redis:// url"))

	key = "redis-key"
	flags.String(key, "settings", WrapString("(redis) The hash holding the settings"))

	SetupRPCClientFlags(cmd)
}

// SetupRPCClientFlags adds common RPC connection flags to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int(key, 10, WrapString("The timeout in seconds of the client"))

	key = "remote-endpoints"
	cmd.PersistentFlags().String(key, "http://localhost:8080", WrapString("(remote) The address of the settings server. Multiple endpoints can be specified as a comma-separated list"))

	key = "remote-shard"
	cmd.PersistentFlags().Uint64(key, 1, WrapString("(remote) ID of the shard to connect to"))

	key = "remote-retries"
	cmd.PersistentFlags().Int(key, 3, WrapString("(remote) How many times to try a request"))

	key = "remote-conn-per-endpoint"
	cmd.PersistentFlags().Int(key, 10, WrapString("(remote) Idle connections kept per endpoint"))
}

// InitConfig loads .env files, the optional config file and the environment
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if ConfigFile != "" {
		viper.SetConfigFile(ConfigFile)
		if err := viper.ReadInConfig(); err != nil {
			configErr = fmt.Errorf("reading config file %s: %w", ConfigFile, err)
		}
	}
}

// BindCommandFlags binds a command's flags to viper and initializes the loggers
func BindCommandFlags(cmd *cobra.Command) error {
	if configErr != nil {
		return configErr
	}
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() common.ClientConfig {
	var endpoints []string
	for _, e := range strings.Split(viper.GetString("remote-endpoints"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			endpoints = append(endpoints, e)
		}
	}
	return common.ClientConfig{
		Endpoints:              endpoints,
		TimeoutSecond:          viper.GetInt("timeout"),
		RetryCount:             viper.GetInt("remote-retries"),
		ConnectionsPerEndpoint: viper.GetInt("remote-conn-per-endpoint"),
	}
}

// GetManagerConfig reads the backend configuration from viper
func GetManagerConfig() (manager.Config, error) {
	scope, err := ParseScope(viper.GetStringSlice("scope"))
	if err != nil {
		return manager.Config{}, err
	}
	return manager.Config{
		Driver:       viper.GetString("store"),
		Path:         viper.GetString("path"),
		Dialect:      viper.GetString("db-driver"),
		DSN:          viper.GetString("db-dsn"),
		Table:        viper.GetString("table"),
		KeyColumn:    viper.GetString("key-column"),
		ValueColumn:  viper.GetString("value-column"),
		ExtraColumns: scope,
		Migrate:      viper.GetBool("db-migrate"),
		RedisAddr:    viper.GetString("redis-addr"),
		RedisKey:     viper.GetString("redis-key"),
		Remote:       GetClientConfig(),
		RemoteShard:  viper.GetUint64("remote-shard"),
		Serializer:   viper.GetString("serializer"),
	}, nil
}

// ParseScope parses column=value pairs into the extra columns of the database driver
func ParseScope(pairs []string) (map[string]any, error) {
	scope := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		column, value, ok := strings.Cut(pair, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid scope %q (expected column=value)", pair)
		}
		scope[column] = strings.TrimSpace(value)
	}
	return scope, nil
}
