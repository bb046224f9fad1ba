package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <backend> <text...>",
	Short: "Estimate the token cost of a text on a backend",
	Long:  "Uses the backend's tokenizer where one is available locally; otherwise a\ncharacter-based heuristic. The result is an estimate, not a billing figure.",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTokens,
}

func runTokens(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	provider, err := reg.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	count, err := provider.CountTokens(cmd.Context(), strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	fmt.Println(count)
	return nil
}
