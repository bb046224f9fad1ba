package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models <backend>",
	Short: "List the models a backend offers",
	Long:  "Queries the backend's model-listing endpoint. Results are cached for 24\nhours per backend and credential, so repeated calls are free.",
	Args:  cobra.ExactArgs(1),
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}

	provider, err := reg.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	models, err := provider.ListModels(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCONTEXT")
	for _, model := range models {
		context := ""
		if model.ContextLength > 0 {
			context = fmt.Sprintf("%d", model.ContextLength)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", model.ID, model.DisplayName, context)
	}
	return w.Flush()
}
