package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dotset/cmd/serve"
	"github.com/ValentinKolb/dotset/cmd/settings"
	"github.com/ValentinKolb/dotset/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dotset",
		Short: "hierarchical settings store",
		Long: fmt.Sprintf(`dotset (v%s)

A settings store addressed by dotted paths (mail.smtp.host), kept in a
JSON file, a database table, a redis hash or on a dotset server.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dotset",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dotset v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(settings.SettingsCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer of the remote driver and the server (json, gob, binary)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("The level at which logs will be output (debug, info, warn, error)"))
	RootCmd.PersistentFlags().StringVar(&util.ConfigFile, "config", "", util.WrapString("Config file (any format viper supports); its keys are the flag names"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
