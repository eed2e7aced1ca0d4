package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds a fresh command tree, so tests can run commands in
// isolation.
func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "solkit",
		Short:        "Solana key, address and instruction tooling",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(viper.GetString("log_level"))
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file for the serve command")
	cmd.PersistentFlags().String("log-level", "info", "log level")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(
		newServeCmd(&configPath),
		newKeygenCmd(),
		newRecoverCmd(),
		newPubkeyCmd(),
		newSignCmd(),
		newVerifyCmd(),
		newDeriveCmd(),
		newATACmd(),
		newBuildCmd(),
		newDecodeCmd(),
	)

	return cmd
}

func printJSON(w io.Writer, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(encoded))
	return err
}
