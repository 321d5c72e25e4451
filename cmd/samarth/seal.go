package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manthysbr/samarth/internal/config"
)

func newSealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seal [value]",
		Short: "Encrypt an API key for use in a config file",
		Long: `Seal encrypts a value with the passphrase in SAMARTH_SECRET_KEY. The output
("enc:...") can be stored as llm.api_key or data.api_key and is decrypted at
startup. Without an argument the value is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			box, err := config.NewSecretBoxFromEnv()
			if err != nil {
				return err
			}

			var value string
			if len(args) == 1 {
				value = args[0]
			} else {
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read value: %w", err)
				}
				value = strings.TrimSpace(line)
			}
			if value == "" {
				return fmt.Errorf("nothing to seal")
			}

			sealed, err := box.Seal(value)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sealed)
			return nil
		},
	}
}
