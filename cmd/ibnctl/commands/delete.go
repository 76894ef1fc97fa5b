package commands

import (
	"github.com/openibn/openibn/pkg/restconf"
	"github.com/spf13/cobra"
)

func newDeleteCommand() *cobra.Command {
	var (
		target            string
		intentType        string
		removeFromNetwork bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an intent",
		Long: `Delete an intent from the controller. A missing intent is a
no-op success.

With --remove-from-network the intent's desired state is first set to
delete and a synchronize runs, so the controller unwinds the network
configuration before the record itself is removed.`,
		Example: `  # Delete the controller record only
  ibnctl delete --target 10.0.0.1 --intent-type iplink

  # Deprovision from the network first
  ibnctl delete --target 10.0.0.1 --intent-type iplink --remove-from-network`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			result, err := rt.reconciler.DeleteIntent(ctx, target, intentType, removeFromNetwork)
			if err != nil {
				if result != nil && restconf.IsPartialApply(err) {
					_ = printResult(result)
				}
				return err
			}
			return printResult(result)
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "intent target")
	cmd.Flags().StringVar(&intentType, "intent-type", "", "intent-type name")
	cmd.Flags().BoolVar(&removeFromNetwork, "remove-from-network", false, "deprovision from the network before deleting")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagRequired("intent-type")

	return cmd
}
