package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration health for every registered backend",
	Long:  "Runs each backend's health check: credential presence always, endpoint\nreachability where the backend can verify it without a billed call.",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	for _, entry := range reg.List() {
		provider, err := reg.Resolve(cmd.Context(), entry.ID)
		if err != nil {
			// Resolution failure is itself a health result: the
			// credential gate names what is missing.
			fmt.Printf("%s %s\n", bad("✗"), entry.DisplayName)
			fmt.Printf("  %s\n", err)
			fmt.Printf("  %s\n", dim(entry.SetupInstructions))
			continue
		}

		health := provider.CheckHealth(cmd.Context())
		if health.Configured {
			fmt.Printf("%s %s %s\n", ok("✓"), entry.DisplayName, dim("("+entry.ID+")"))
			continue
		}

		fmt.Printf("%s %s %s\n", bad("✗"), entry.DisplayName, dim("("+entry.ID+")"))
		if health.Error != "" {
			fmt.Printf("  %s\n", health.Error)
		}
		if health.SetupInstructions != "" {
			fmt.Printf("  %s\n", dim(health.SetupInstructions))
		}
	}
	return nil
}
