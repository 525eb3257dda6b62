package serve

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ValentinKolb/kvbind/cmd/util"
	"github.com/ValentinKolb/kvbind/lib/conn"
	"github.com/ValentinKolb/kvbind/rpc/common"
	"github.com/ValentinKolb/kvbind/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start an in-memory dKV protocol server",
		Long: `Start an in-memory server speaking the dKV protocol, so the kv and bench commands can run locally.
The configuration can be set via command line flags or environment variables. The format of the environment variables is KVBIND_<flag> (e.g. KVBIND_ENDPOINT=/tmp/kvbind.sock)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100", util.WrapString("Comma-separated list of shard ids to serve, each shard is an in-memory store"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, util.WrapString("Read/write deadline of a connection in seconds (0 = none)"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, fmt.Sprintf("%s:%d", conn.DefaultHost, conn.DefaultPort), util.WrapString("The address on which the server will listen (e.g. 0.0.0.0:6378, /tmp/kvbind.sock, ...)"))

	util.SetupTransportFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	shards, err := parseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}

	serveCmdConfig.Shards = shards
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = util.GetTransportConfig()

	return nil
}

// parseShards parses a comma-separated list of shard ids
func parseShards(s string) ([]uint64, error) {
	var shards []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		shardID, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %v", part, err)
		}
		shards = append(shards, shardID)
	}
	if len(shards) == 0 {
		return nil, fmt.Errorf("at least one shard is required")
	}
	return shards, nil
}

// run starts the server and stops it on SIGINT / SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetServerTransport(serveCmdConfig.Endpoint)
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(*serveCmdConfig, t, s)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		sig := <-signals
		server.Logger.Infof("Received %s, shutting down", sig)
		if err := serv.Close(); err != nil {
			server.Logger.Warningf("Shutdown failed: %v", err)
		}
	}()

	return serv.Serve()
}
