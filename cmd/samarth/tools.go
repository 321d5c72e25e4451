package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newToolsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog shown to the language model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(false)
			if err != nil {
				return err
			}
			crops, registry, err := buildRegistry(cfg, newLogger(cfg, io.Discard))
			if err != nil {
				return err
			}
			defer crops.Close()

			fmt.Fprintln(cmd.OutOrStdout(), registry.RenderDefinitions())
			return nil
		},
	}
}
