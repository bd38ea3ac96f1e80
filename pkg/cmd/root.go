// Package cmd implements the phishjudge command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"phishjudge/pkg/config"
)

// Version is overridden at build time with -ldflags "-X phishjudge/pkg/cmd.Version=...".
var Version = "dev"

var (
	cfgFile string
	debug   bool

	v = viper.New()

	rootCmd = &cobra.Command{
		Use:   "phishjudge",
		Short: "Classify URLs as phishing or legitimate",
		Long: `phishjudge extracts the 29 UCI phishing-website features from a URL,
scores them with a classifier and reports a verdict with a risk tier.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initConfig()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(checkCommand())
	rootCmd.AddCommand(scanCommand())
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(blacklistCommand())
	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	// A missing .env is normal; the environment and config file still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// initConfig layers defaults, the optional config file and PHISHJUDGE_* env vars.
func initConfig() error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	config.BindEnv(v)
	config.SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	if debug {
		v.Set("log.level", "debug")
	}
	return nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "phishjudge %s\n", Version)
		},
	}
}
