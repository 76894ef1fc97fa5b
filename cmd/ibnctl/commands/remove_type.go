package commands

import (
	"github.com/spf13/cobra"
)

func newRemoveTypeCommand() *cobra.Command {
	var (
		intentType string
		version    int
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "remove-type",
		Short: "Remove an intent-type from the catalog",
		Long: `Remove an intent-type from the controller's catalog. A missing
intent-type is a no-op success.

When intents of that exact version still exist, the removal fails unless
--force is set, in which case every found intent is deleted first,
aborting on the first deletion failure.`,
		Example: `  # Remove an unused intent-type
  ibnctl remove-type --intent-type iplink --version 1

  # Cascade-delete remaining intents first
  ibnctl remove-type --intent-type iplink --version 1 --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			result, err := rt.reconciler.DeleteIntentType(ctx, intentType, version, force)
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}

	cmd.Flags().StringVar(&intentType, "intent-type", "", "intent-type name")
	cmd.Flags().IntVar(&version, "version", 0, "intent-type version")
	cmd.Flags().BoolVar(&force, "force", false, "delete remaining intents before the intent-type")
	cmd.MarkFlagRequired("intent-type")
	cmd.MarkFlagRequired("version")

	return cmd
}
