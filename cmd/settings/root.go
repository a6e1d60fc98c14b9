package settings

import (
	"github.com/ValentinKolb/dotset/cmd/util"
	"github.com/ValentinKolb/dotset/lib/manager"
	"github.com/ValentinKolb/dotset/lib/store"
	"github.com/spf13/cobra"
)

var (
	mgr           *manager.Manager
	settingsStore *store.Store

	// SettingsCommands represents the settings command group
	SettingsCommands = &cobra.Command{
		Use:                "settings",
		Short:              "Read and change settings",
		Long:               util.WrapString("Read and change the settings of the configured store. Paths are dotted keys like mail.smtp.host, list elements are addressed by their index (hosts.0). Every command that changes settings saves them once at the end."),
		PersistentPreRunE:  setupStore,
		PersistentPostRunE: closeStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add backend selection flags
	util.SetupBackendFlags(SettingsCommands)

	// Add subcommands
	SettingsCommands.AddCommand(getCmd)
	SettingsCommands.AddCommand(setCmd)
	SettingsCommands.AddCommand(forgetCmd)
	SettingsCommands.AddCommand(allCmd)
	SettingsCommands.AddCommand(keysCmd)
	SettingsCommands.AddCommand(importCmd)
}

// setupStore creates the manager and the store for the configured backend
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config, err := util.GetManagerConfig()
	if err != nil {
		return err
	}

	mgr = manager.New(config)
	settingsStore, err = mgr.Store(cmd.Context(), store.WithName("cli"))
	if err != nil {
		_ = mgr.Close()
		return err
	}
	return nil
}

// closeStore releases the connections of the manager
func closeStore(_ *cobra.Command, _ []string) error {
	if mgr == nil {
		return nil
	}
	return mgr.Close()
}
