/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     Config
	vc      *application
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vivachat",
	Short: "Terminal client for vivachat rooms",
	Long: `vivachat joins chat rooms from the terminal: log in as a guest or an
admin, join rooms by code and PIN, and chat with live updates, typing
indicators and presence.

Without arguments it starts an interactive shell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if vc != nil {
			return nil
		}
		a, err := newApplication(cfg)
		if err != nil {
			return err
		}
		vc = a
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer func() {
		if vc != nil {
			vc.Close()
		}
	}()

	// one‑shot
	if len(os.Args) > 1 {
		if err := rootCmd.Execute(); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			if vc != nil {
				vc.Close()
			}
			os.Exit(1)
		}
		return
	}

	// REPL
	fmt.Println("entering interactive mode, type 'exit' to quit")
	p := prompt.New(
		executeLine,
		complete,
		prompt.OptionPrefix("❯❯❯ "),
		prompt.OptionTitle("vivachat"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			in = strings.TrimSpace(in)
			return breakline && (in == "exit" || in == "quit")
		}),
	)
	p.Run()
}

func executeLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" || line == "exit" || line == "quit" {
		return
	}
	args, err := shellwords.Parse(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error parsing input:", err)
		return
	}
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	resetFlags(rootCmd)
}

// resetFlags restores flag defaults so values do not leak between REPL
// lines.
func resetFlags(c *cobra.Command) {
	for _, sub := range c.Commands() {
		sub.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
		})
		resetFlags(sub)
	}
}

func complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	var s []prompt.Suggest
	for _, c := range rootCmd.Commands() {
		if c.Hidden || !c.IsAvailableCommand() {
			continue
		}
		s = append(s, prompt.Suggest{Text: c.Name(), Description: c.Short})
	}
	s = append(s, prompt.Suggest{Text: "exit", Description: "Leave the interactive shell"})
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vivachat.yaml)")
	rootCmd.PersistentFlags().String("api", defaultAPIBaseURL, "Base URL of the REST API")
	rootCmd.PersistentFlags().String("ws", defaultWSURL, "Websocket URL of the STOMP endpoint")
	rootCmd.PersistentFlags().String("transport", defaultTransport, "Real-time transport: websocket or grpc")
	rootCmd.PersistentFlags().String("relay", defaultRelayAddress, "Address of the gRPC relay (e.g., localhost:50051)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")

	viper.BindPFlag(apiBaseURLKey, rootCmd.PersistentFlags().Lookup("api"))
	viper.BindPFlag(wsURLKey, rootCmd.PersistentFlags().Lookup("ws"))
	viper.BindPFlag(transportKey, rootCmd.PersistentFlags().Lookup("transport"))
	viper.BindPFlag(relayAddressKey, rootCmd.PersistentFlags().Lookup("relay"))
	viper.BindPFlag(logLevelKey, rootCmd.PersistentFlags().Lookup("log-level"))
	setDefaults(viper.GetViper())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vivachat")
	}

	viper.SetEnvPrefix("VIVACHAT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}

	loaded, err := LoadConfig(viper.GetViper())
	cobra.CheckErr(err)
	cfg = loaded
}
