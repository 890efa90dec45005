package main

import (
	"fmt"
	"os"

	graph "github.com/hanpama/docgraph/internal/graph"
	store "github.com/hanpama/docgraph/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *subCommand {
	sc := &subCommand{}
	sc.Cmd = &cobra.Command{
		Use:   "schema",
		Short: "Print the GraphQL schema in SDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, err := graph.New(store.NewMemory())
			if err != nil {
				return errors.Wrap(err, "building schema")
			}
			out := sc.Conf.GetString("out")
			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), gw.SDL)
				return err
			}
			return os.WriteFile(out, []byte(gw.SDL), 0o644)
		},
	}
	sc.Cmd.Flags().String("out", "", "Write the SDL to a file instead of stdout")
	return sc
}
