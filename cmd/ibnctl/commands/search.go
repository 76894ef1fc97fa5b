package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCommand() *cobra.Command {
	var (
		intentType string
		version    int
		page       int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "List intent targets of an intent-type",
		Long: `List the targets of all intents matching an exact intent-type and
version, one page at a time. The page size comes from the configuration.`,
		Example: `  # First page of iplink v1 intents
  ibnctl search --intent-type iplink --version 1

  # Next page
  ibnctl search --intent-type iplink --version 1 --page 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			targets, err := rt.reconciler.Reader().SearchIntents(ctx, intentType, version, page)
			if err != nil {
				return err
			}

			if jsonOutput {
				encoded, err := json.MarshalIndent(targets, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(encoded))
				return nil
			}
			for _, target := range targets {
				fmt.Println(target)
			}
			fmt.Printf("%d intent(s)\n", len(targets))
			return nil
		},
	}

	cmd.Flags().StringVar(&intentType, "intent-type", "", "intent-type name")
	cmd.Flags().IntVar(&version, "version", 0, "intent-type version")
	cmd.Flags().IntVar(&page, "page", 0, "result page number")
	cmd.MarkFlagRequired("intent-type")
	cmd.MarkFlagRequired("version")

	return cmd
}
