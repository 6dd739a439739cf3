package kv

import (
	"github.com/ValentinKolb/skv/lib/store"
	"github.com/spf13/cobra"
)

var (
	hgetCmd = &cobra.Command{
		Use:   "hget [table] [key]",
		Short: "Reads the value of a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := rpcClient.Hget(args[0], args[1])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat(), []entry{newEntry(args[1], v)})
		},
	}
	hgetallCmd = &cobra.Command{
		Use:   "hgetall [table]",
		Short: "Reads all pairs of a table (sorted by key)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := rpcClient.Hgetall(args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat(), entriesOfPairs(pairs))
		},
	}
	hsetCmd = &cobra.Command{
		Use:   "hset [table] [key] [value]",
		Short: "Sets the value of a key and prints the previous value",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseValue(args[2], valueType())
			if err != nil {
				return err
			}
			old, err := rpcClient.Hset(args[0], args[1], v)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat(), []entry{newEntry(args[1], old)})
		},
	}
	hmgetCmd = &cobra.Command{
		Use:   "hmget [table] [key...]",
		Short: "Reads the values of several keys",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := args[1:]
			values, err := rpcClient.Hmget(args[0], keys...)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat(), entriesOf(keys, values))
		},
	}
	hmsetCmd = &cobra.Command{
		Use:   "hmset [table] [key=value...]",
		Short: "Sets several pairs and prints the previous values",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parsePairs(args[1:], valueType())
			if err != nil {
				return err
			}
			olds, err := rpcClient.Hmset(args[0], pairs...)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat(), entriesOf(pairKeys(pairs), olds))
		},
	}
	hdelCmd = &cobra.Command{
		Use:   "hdel [table] [key]",
		Short: "Deletes a key and prints the removed value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := rpcClient.Hdel(args[0], args[1])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat(), []entry{newEntry(args[1], old)})
		},
	}
	hmdelCmd = &cobra.Command{
		Use:   "hmdel [table] [key...]",
		Short: "Deletes several keys and prints the removed values",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := args[1:]
			olds, err := rpcClient.Hmdel(args[0], keys...)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat(), entriesOf(keys, olds))
		},
	}
	hexistCmd = &cobra.Command{
		Use:   "hexist [table] [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := rpcClient.Hexist(args[0], args[1])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat(), []entry{newEntry(args[1], store.Bool(found))})
		},
	}
	hmexistCmd = &cobra.Command{
		Use:   "hmexist [table] [key...]",
		Short: "Checks for several keys whether they exist",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := args[1:]
			found, err := rpcClient.Hmexist(args[0], keys...)
			if err != nil {
				return err
			}
			values := make([]store.Value, len(found))
			for i, f := range found {
				values[i] = store.Bool(f)
			}
			return render(cmd.OutOrStdout(), outputFormat(), entriesOf(keys, values))
		},
	}
)

func pairKeys(pairs []store.Kvpair) []string {
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}
