package main

import (
	"fmt"
	"runtime/debug"

	config "github.com/hanpama/docgraph/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// subCommand pairs a cobra command with its own viper instance.
type subCommand struct {
	Cmd  *cobra.Command
	Conf *viper.Viper
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "docgraph",
		Short:         "GraphQL gateway over a user/post document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "Config file (yaml, json or toml)")

	subs := []*subCommand{newServeCmd(), newSchemaCmd(), newVersionCmd()}
	for _, sc := range subs {
		root.AddCommand(sc.Cmd)
		sc.Conf = viper.New()
		config.Bind(sc.Conf)
		_ = sc.Conf.BindPFlags(sc.Cmd.Flags())
		_ = sc.Conf.BindPFlags(root.PersistentFlags())
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			return nil
		}
		for _, sc := range subs {
			if sc.Cmd != cmd {
				continue
			}
			sc.Conf.SetConfigFile(path)
			if err := sc.Conf.ReadInConfig(); err != nil {
				return errors.Wrap(err, "reading config")
			}
		}
		return nil
	}
	return root
}

func newVersionCmd() *subCommand {
	sc := &subCommand{}
	sc.Cmd = &cobra.Command{
		Use:   "version",
		Short: "Print the docgraph version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v := version
			if info, ok := debug.ReadBuildInfo(); ok && v == "dev" && info.Main.Version != "" {
				v = info.Main.Version
			}
			fmt.Fprintf(cmd.OutOrStdout(), "docgraph %s\n", v)
		},
	}
	return sc
}
