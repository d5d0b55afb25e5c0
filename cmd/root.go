// -- cmd/root.go --
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/deskhand/deskhand/internal/config"
	"github.com/deskhand/deskhand/internal/observability"
)

var (
	cfgFile string

	// appConfig is populated by the root PersistentPreRunE and consumed by
	// every subcommand.
	appConfig config.Interface
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "deskhand",
	Short: "Deskhand executes model-generated desktop actions on the local machine.",
	Long: `Deskhand normalizes computer-use output from LLM backends into a canonical
action schema, decomposes each action into primitive input operations, and
injects them into the OS with multi-monitor awareness. The serve command
exposes the HTTP control surface; run executes a single task from the shell.`,
	// Version is set at build time. See cmd/version.go.
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// API keys commonly live in a local .env during development.
		_ = godotenv.Load()

		v, err := initializeViper()
		if err != nil {
			return err
		}

		cfg, err := config.NewConfigFromViper(v)
		if err != nil {
			// Initialize a fallback logger so the error itself is visible.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "deskhand"})
			return err
		}
		applyRootFlagOverrides(cmd.Root().PersistentFlags(), cfg)
		appConfig = cfg

		observability.InitializeLogger(cfg.Logger())
		observability.GetLogger().Info("Starting deskhand", zap.String("version", Version))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	defer observability.Sync()
	if err := rootCmd.Execute(); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().Int("screen", -1, "zero-based display index to bind (overrides config)")
	rootCmd.PersistentFlags().String("mode", "", "actor mode: remote, oai-operator, claude-computer-use, ui-tars")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newScreensCmd())
	rootCmd.AddCommand(newMarkerCmd())
}

// initializeViper reads in the config file and DESKHAND_* environment
// variables on top of the defaults.
func initializeViper() (*viper.Viper, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DESKHAND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and env vars.
	}
	return v, nil
}

// applyRootFlagOverrides maps the persistent flags onto the loaded config.
// Flags always win over the file and environment.
func applyRootFlagOverrides(flags *pflag.FlagSet, cfg config.Interface) {
	if flags.Changed("screen") {
		if idx, err := flags.GetInt("screen"); err == nil && idx >= 0 {
			cfg.SetScreenIndex(idx)
		}
	}
	if flags.Changed("mode") {
		if mode, err := flags.GetString("mode"); err == nil && mode != "" {
			cfg.SetActorMode(mode)
		}
	}
}
