package kv

import (
	"github.com/ValentinKolb/kvbind/cmd/util"
	"github.com/ValentinKolb/kvbind/lib/binding"
	"github.com/spf13/cobra"
)

var (
	recordStore *binding.RecordStore

	// KeyValueCommands represents the record command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform single record operations",
		PersistentPreRunE:  setupRecordStore,
		PersistentPostRunE: cleanupRecordStore,
	}
)

func init() {
	// Add backend flags to the KV command
	util.SetupBackendFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(readCmd)
	KeyValueCommands.AddCommand(insertCmd)
	KeyValueCommands.AddCommand(updateCmd)
	KeyValueCommands.AddCommand(deleteCmd)
	KeyValueCommands.AddCommand(scanCmd)
}

// setupRecordStore creates and initializes the record store
func setupRecordStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	store, _, err := util.NewRecordStore(nil)
	if err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return err
	}

	recordStore = store
	return nil
}

func cleanupRecordStore(*cobra.Command, []string) error {
	if recordStore != nil {
		recordStore.Cleanup()
	}
	return nil
}
