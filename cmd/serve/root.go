package serve

import (
	cmdUtil "github.com/ValentinKolb/skv/cmd/util"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the skv server",
		Long:    `Start the skv server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is SKV_<flag> (e.g. SKV_DATA_DIR=/var/lib/skv)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:4567", cmdUtil.WrapString("The address on which the server will listen (e.g. localhost:4567 for tcp, /tmp/skv.sock for unix)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 30, cmdUtil.WrapString("Deadline in seconds for reading a request after its header arrived and for writing the response, 0 disables it"))

	key = "storage"
	ServeCmd.PersistentFlags().String(key, common.StorageMemory, cmdUtil.WrapString("The storage backend (memory, pebble)"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("The directory of the pebble storage backend"))

	key = "pebble-sync"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether every pebble write is synced to disk before it is acknowledged"))

	key = "pebble-cache"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Size of the pebble block cache in MB, 0 uses the pebble default"))

	key = "tls-cert"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("PEM file of the server certificate"))

	key = "tls-key"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("PEM file of the server key"))

	key = "tls-client-ca"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("PEM file of the CA that signs client certificates. If set, clients must present a valid certificate"))

	key = "insecure"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Serve without TLS (only for local development)"))

	key = "socket-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket write buffer (in KB)"))

	key = "socket-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 512, cmdUtil.WrapString("The size of the socket read buffer (in KB)"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on accepted connections"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 30, cmdUtil.WrapString("The keepalive interval of accepted connections in seconds"))

	key = "admin-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address of the admin HTTP server serving /metrics and /healthz (disabled if empty)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	cmdUtil.SetupProtocolFlags(ServeCmd)
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	*serveCmdConfig = common.ServerConfig{
		TimeoutSecond: viper.GetInt64("timeout"),
		Transport: common.ServerTransportConfig{
			Endpoint: viper.GetString("endpoint"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("socket-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("socket-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPNoDelay:      viper.GetBool("tcp-nodelay"),
				TCPKeepAliveSec: viper.GetInt("tcp-keepalive"),
				TCPLingerSec:    -1,
			},
			TLSConf: common.TLSConf{
				Insecure: viper.GetBool("insecure"),
				CertFile: viper.GetString("tls-cert"),
				KeyFile:  viper.GetString("tls-key"),
				CAFile:   viper.GetString("tls-client-ca"),
			},
			ProtocolConf: cmdUtil.GetProtocolConf(),
		},
		Storage: common.StorageConf{
			Backend:       viper.GetString("storage"),
			DataDir:       viper.GetString("data-dir"),
			PebbleSync:    viper.GetBool("pebble-sync"),
			PebbleCacheMB: viper.GetInt("pebble-cache"),
		},
		AdminEndpoint: viper.GetString("admin-endpoint"),
		LogLevel:      viper.GetString("log-level"),
	}

	return serveCmdConfig.Validate()
}

// run starts the skv server and blocks until it receives SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	return serv.ServeUntilSignal()
}
