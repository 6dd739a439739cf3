package kv

import (
	"github.com/ValentinKolb/skv/cmd/util"
	"github.com/ValentinKolb/skv/rpc/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcClient *client.Client

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	key := "type"
	KeyValueCommands.PersistentFlags().String(key, "string", util.WrapString("Type of the values given on the command line (string, int, float, bool, bytes as base64)"))
	key = "output"
	KeyValueCommands.PersistentFlags().StringP(key, "o", outputText, util.WrapString("Output format (text, json, yaml)"))

	// Add subcommands
	KeyValueCommands.AddCommand(hgetCmd)
	KeyValueCommands.AddCommand(hgetallCmd)
	KeyValueCommands.AddCommand(hsetCmd)
	KeyValueCommands.AddCommand(hmgetCmd)
	KeyValueCommands.AddCommand(hmsetCmd)
	KeyValueCommands.AddCommand(hdelCmd)
	KeyValueCommands.AddCommand(hmdelCmd)
	KeyValueCommands.AddCommand(hexistCmd)
	KeyValueCommands.AddCommand(hmexistCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetClientTransport()
	if err != nil {
		return err
	}

	// Create the client
	rpcClient, err = client.NewRPCClient(
		*config,
		t,
		s,
	)

	return err
}

func closeKVClient(_ *cobra.Command, _ []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Close()
}

func valueType() string    { return viper.GetString("type") }
func outputFormat() string { return viper.GetString("output") }
