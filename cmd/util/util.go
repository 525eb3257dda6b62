package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/kvbind/lib/backend"
	"github.com/ValentinKolb/kvbind/lib/backend/resp"
	"github.com/ValentinKolb/kvbind/lib/binding"
	"github.com/ValentinKolb/kvbind/lib/conn"
	"github.com/ValentinKolb/kvbind/rpc/client"
	"github.com/ValentinKolb/kvbind/rpc/common"
	"github.com/ValentinKolb/kvbind/rpc/serializer"
	"github.com/ValentinKolb/kvbind/rpc/transport"
	"github.com/ValentinKolb/kvbind/rpc/transport/tcp"
	"github.com/ValentinKolb/kvbind/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. KVBIND_HOSTS)
	EnvPrefix = "kvbind"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads the env files and initializes viper
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// SetupTransportFlags adds the socket flags shared by clients and the server to a command
func SetupTransportFlags(cmd *cobra.Command) {
	key := "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the write buffer for the transport (in KB)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the read buffer for the transport (in KB)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the transport (tcp only)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval for the transport (in seconds, tcp only)"))
}

// SetupBackendFlags adds the backend and record store flags to a command
func SetupBackendFlags(cmd *cobra.Command) {
	key := "hosts"
	cmd.PersistentFlags().String(key, conn.DefaultHost, WrapString("Comma-separated list of backend hosts. A host containing a '/' is a unix socket path. More than one host enables cluster mode"))

	key = "port"
	cmd.PersistentFlags().Int(key, conn.DefaultPort, WrapString("The port used for every host"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, 0, WrapString("Connect and operation timeout in milliseconds (0 = no timeout)"))

	key = "cluster"
	cmd.PersistentFlags().Bool(key, false, WrapString("Use a cluster connection even for a single host"))

	key = "fieldcount"
	cmd.PersistentFlags().Int(key, conn.DefaultFieldCount, WrapString("The number of fields of a record, used to size the stored value"))

	key = "protocol"
	cmd.PersistentFlags().String(key, "dkv", WrapString("The backend protocol (dkv, resp)"))

	key = "shard"
	cmd.PersistentFlags().Int(key, 100, WrapString("ID of the shard to connect to (dkv only)"))

	key = "resp-password"
	cmd.PersistentFlags().String(key, "", WrapString("Password for the backend (resp only)"))

	key = "insert-retries"
	cmd.PersistentFlags().Int(key, binding.DefaultInsertRetries, WrapString("Attempts of an insert before it fails"))

	key = "update-retries"
	cmd.PersistentFlags().Int(key, binding.DefaultUpdateRetries, WrapString("Attempts of an update before it fails"))

	key = "invalidate-on-read-error"
	cmd.PersistentFlags().Bool(key, false, WrapString("Drop the connection after a failed read, the next operation reconnects"))

	SetupTransportFlags(cmd)
}

// BindCommandFlags binds a command's flags to viper and applies the log level
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetBackendConfig reads the backend configuration from viper
func GetBackendConfig() conn.Config {
	return conn.NewConfig(
		conn.ParseHosts(viper.GetString("hosts")),
		viper.GetInt("port"),
		time.Duration(viper.GetInt("timeout"))*time.Millisecond,
		viper.GetBool("cluster"),
		viper.GetInt("fieldcount"),
	)
}

// GetStoreOptions reads the record store options from viper
func GetStoreOptions(config conn.Config, metrics *binding.Metrics) binding.Options {
	opts := binding.DefaultOptions(config.FieldCount)
	opts.InsertRetries = viper.GetInt("insert-retries")
	opts.UpdateRetries = viper.GetInt("update-retries")
	opts.InvalidateOnReadError = viper.GetBool("invalidate-on-read-error")
	opts.Metrics = metrics
	return opts
}

// GetTransportConfig reads the socket settings from viper
func GetTransportConfig() common.TransportConfig {
	return common.TransportConfig{
		WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
	}
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetClientTransportFactory chooses the client transport based on configuration
func GetClientTransportFactory() (client.TransportFactory, error) {
	switch viper.GetString("transport") {
	case "auto":
		return client.AutoTransport, nil
	case "tcp":
		return client.TCPTransport, nil
	case "unix":
		return client.UnixTransport, nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetServerTransport creates the server transport based on configuration.
// With "auto" an endpoint containing a '/' is served over a unix socket.
func GetServerTransport(endpoint string) (transport.IRPCServerTransport, error) {
	switch viper.GetString("transport") {
	case "auto":
		if strings.Contains(endpoint, "/") {
			return unix.NewUnixServerTransport(), nil
		}
		return tcp.NewTCPServerTransport(), nil
	case "tcp":
		return tcp.NewTCPServerTransport(), nil
	case "unix":
		return unix.NewUnixServerTransport(), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// GetShardID retrieves the configured shard ID
func GetShardID() uint64 {
	return uint64(viper.GetInt("shard"))
}

// GetDialer creates the dialer for the configured protocol
func GetDialer() (backend.IDialer, error) {
	switch protocol := viper.GetString("protocol"); protocol {
	case "dkv":
		s, err := GetSerializer()
		if err != nil {
			return nil, err
		}
		factory, err := GetClientTransportFactory()
		if err != nil {
			return nil, err
		}
		return client.NewDialer(GetShardID(), factory, s, common.ClientConfig{
			Transport: GetTransportConfig(),
		}), nil
	case "resp":
		return resp.NewDialer(&resp.Options{
			Password: viper.GetString("resp-password"),
		}), nil
	default:
		return nil, fmt.Errorf("invalid protocol %s (expected dkv or resp)", protocol)
	}
}

// NewRecordStore creates a record store with its own connection manager.
// The store is not initialized yet.
func NewRecordStore(metrics *binding.Metrics) (*binding.RecordStore, *conn.Manager, error) {
	config := GetBackendConfig()
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}

	dialer, err := GetDialer()
	if err != nil {
		return nil, nil, err
	}

	manager := conn.NewManager(config, dialer)
	return binding.NewRecordStore(manager, GetStoreOptions(config, metrics)), manager, nil
}
