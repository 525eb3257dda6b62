package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/kvbind/cmd/bench"
	"github.com/ValentinKolb/kvbind/cmd/kv"
	"github.com/ValentinKolb/kvbind/cmd/serve"
	"github.com/ValentinKolb/kvbind/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvbind",
		Short: "record binding for key-value backends",
		Long: fmt.Sprintf(`kvbind (v%s)

A benchmark binding that maps record operations onto single key-value
backends (dKV or Redis-compatible), reachable as one node or as a
sharded cluster, with lazy reconnects and bounded write retries.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvbind",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvbind v%s\n", Version)
		},
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(bench.BenchCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use for the dkv protocol (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "auto", util.WrapString("transport to use for the dkv protocol (auto, tcp, unix). auto uses unix sockets for paths"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("the level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
