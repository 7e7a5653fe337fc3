/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	apiBaseURLKey     = "api_base_url"
	wsURLKey          = "ws_url"
	transportKey      = "transport"
	relayAddressKey   = "relay_address"
	credentialDBKey   = "credential_db"
	logLevelKey       = "log_level"
	logJSONKey        = "log_json"
	logFileKey        = "log_file"
	typingQuietKey    = "typing_quiet_interval"
	reconnectDelayKey = "reconnect_delay"
	heartbeatKey      = "heartbeat"
	connectTimeoutKey = "connect_timeout"
	metricsAddrKey    = "metrics_addr"
	currentRoomKey    = "current_room"
)

const (
	defaultAPIBaseURL   = "http://localhost:8080/api/v1"
	defaultWSURL        = "ws://localhost:8080/ws/websocket"
	defaultTransport    = "websocket"
	defaultRelayAddress = "localhost:50051"
)

type Config struct {
	APIBaseURL     string        `mapstructure:"api_base_url" validate:"required,url"`
	WSURL          string        `mapstructure:"ws_url" validate:"required_if=Transport websocket"`
	Transport      string        `mapstructure:"transport" validate:"oneof=websocket grpc"`
	RelayAddress   string        `mapstructure:"relay_address" validate:"required_if=Transport grpc"`
	CredentialDB   string        `mapstructure:"credential_db" validate:"required"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogJSON        bool          `mapstructure:"log_json"`
	LogFile        string        `mapstructure:"log_file"`
	TypingQuiet    time.Duration `mapstructure:"typing_quiet_interval" validate:"gt=0"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" validate:"gt=0"`
	Heartbeat      time.Duration `mapstructure:"heartbeat" validate:"gte=0"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" validate:"gt=0"`
	MetricsAddr    string        `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	CurrentRoom    int64         `mapstructure:"current_room" validate:"gte=0"`
}

func setDefaults(v *viper.Viper) {
	dataDir := "."
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = home
	}
	v.SetDefault(apiBaseURLKey, defaultAPIBaseURL)
	v.SetDefault(wsURLKey, defaultWSURL)
	v.SetDefault(transportKey, defaultTransport)
	v.SetDefault(relayAddressKey, defaultRelayAddress)
	v.SetDefault(credentialDBKey, filepath.Join(dataDir, ".vivachat.db"))
	v.SetDefault(logLevelKey, "info")
	v.SetDefault(logJSONKey, false)
	v.SetDefault(logFileKey, filepath.Join(dataDir, ".vivachat.log"))
	v.SetDefault(typingQuietKey, 2*time.Second)
	v.SetDefault(reconnectDelayKey, 5*time.Second)
	v.SetDefault(heartbeatKey, 4*time.Second)
	v.SetDefault(connectTimeoutKey, 10*time.Second)
	v.SetDefault(metricsAddrKey, "")
	v.SetDefault(currentRoomKey, 0)
}

// LoadConfig decodes and validates the effective configuration.
func LoadConfig(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := validator.New().Struct(c); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [key value]",
	Short: "Shows or sets configuration values.",
	Long: `Without arguments, prints the effective configuration after defaults,
the config file, environment variables and flags are applied.
With a key and a value, stores the value in the config file.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return errors.New("expected no arguments or a key and a value")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, kv := range []struct {
				key string
				val any
			}{
				{apiBaseURLKey, cfg.APIBaseURL},
				{wsURLKey, cfg.WSURL},
				{transportKey, cfg.Transport},
				{relayAddressKey, cfg.RelayAddress},
				{credentialDBKey, cfg.CredentialDB},
				{logLevelKey, cfg.LogLevel},
				{logJSONKey, cfg.LogJSON},
				{logFileKey, cfg.LogFile},
				{typingQuietKey, cfg.TypingQuiet},
				{reconnectDelayKey, cfg.ReconnectDelay},
				{heartbeatKey, cfg.Heartbeat},
				{connectTimeoutKey, cfg.ConnectTimeout},
				{metricsAddrKey, cfg.MetricsAddr},
				{currentRoomKey, cfg.CurrentRoom},
			} {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %v\n", kv.key, kv.val)
			}
			return nil
		}

		key, value := args[0], args[1]
		if !viper.IsSet(key) {
			return fmt.Errorf("unknown key %q", key)
		}
		viper.Set(key, value)
		loaded, err := LoadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if err := writeConfig(); err != nil {
			return err
		}
		cfg = loaded
		fmt.Fprintf(cmd.OutOrStdout(), "%s set to %s\n", key, value)
		return nil
	},
}

// writeConfig persists viper's settings, creating the file on first use.
func writeConfig() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || (err != nil && viper.ConfigFileUsed() == "") {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return herr
		}
		err = viper.SafeWriteConfigAs(filepath.Join(home, ".vivachat.yaml"))
	}
	if err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
}
