package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/manthysbr/samarth/internal/core/domain"
)

func newAskCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask one question, or start an interactive session",
		Long: `Ask answers the question given as arguments. Without arguments it reads
questions line by line until "quit" or "exit".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(true)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			comps, err := buildComponents(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Close()

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				printOutcome(out, comps.agent.Run(cmd.Context(), strings.Join(args, " ")))
				return nil
			}
			return interactive(cmd.Context(), cmd.InOrStdin(), out, comps.agent.Run)
		},
	}
}

// interactive runs the question loop until EOF or quit/exit.
func interactive(ctx context.Context, in io.Reader, out io.Writer, run func(context.Context, string) domain.Outcome) error {
	fmt.Fprintln(out, "Project Samarth. Type 'quit' or 'exit' to leave.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nAsk a question: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		printOutcome(out, run(ctx, query))
	}
}

func printOutcome(out io.Writer, outcome domain.Outcome) {
	switch o := outcome.(type) {
	case domain.AnswerOutcome:
		fmt.Fprintln(out, o.Text)
	case domain.ErrorOutcome:
		fmt.Fprintln(out, "Error:", o.Message)
	}
}
