// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ipynb-to-jekyll CLI.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

const appName = "ipynb-to-jekyll"

// rootCmd is the base command for the ipynb-to-jekyll CLI. Given a single
// notebook path it converts it with the configured defaults.
var rootCmd = &cobra.Command{
	Use:   appName + " [notebook.ipynb]",
	Short: "Convert notebooks into Jekyll post bodies",
	Long: `ipynb-to-jekyll converts a saved notebook into the markup of a Jekyll post:
markdown cells are copied verbatim and code cells become an In/Out transcript
inside a {% highlight %} block, with terminal colour codes stripped from
tracebacks. The transcript is written to standard output.

Running the root command with a notebook path is the same as
"ipynb-to-jekyll convert <path>" with the configured defaults.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runConvert(cmd, args)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ipynb-to-jekyll.yaml or $XDG_CONFIG_HOME/ipynb-to-jekyll/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults()
}

// setDefaults registers the configuration keys and their default values.
func setDefaults() {
	viper.SetDefault("transcode.variant", "ipy")
	viper.SetDefault("transcode.on_unknown_output", "abort")
	viper.SetDefault("ledger.record", false)
	viper.SetDefault("ledger.path", filepath.Join(xdg.DataHome, appName, "ledger.db"))
	viper.SetDefault("ledger.max_results", 50)
	viper.SetDefault("log.level", "info")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(appName)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		if path, err := xdg.SearchConfigFile(filepath.Join(appName, "config.yaml")); err == nil {
			viper.AddConfigPath(filepath.Dir(path))
		}
	}

	bindEnv()

	configReadErr := viper.ReadInConfig()

	initLogger(viper.GetString("log.level"))

	if configReadErr == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
		return
	}
	if _, ok := configReadErr.(viper.ConfigFileNotFoundError); !ok {
		slog.Warn("could not read config file, using defaults", "error", configReadErr)
	}
}

// bindEnv maps IPYNB_TO_JEKYLL_<SECTION>_<KEY> variables onto config keys.
func bindEnv() {
	viper.SetEnvPrefix("IPYNB_TO_JEKYLL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// initLogger installs a text handler on stderr. Standard output carries
// only the transcript.
func initLogger(level string) {
	programLevel := new(slog.LevelVar)
	switch strings.ToLower(level) {
	case "debug":
		programLevel.Set(slog.LevelDebug)
	case "warn":
		programLevel.Set(slog.LevelWarn)
	case "error":
		programLevel.Set(slog.LevelError)
	default:
		programLevel.Set(slog.LevelInfo)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel})
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
