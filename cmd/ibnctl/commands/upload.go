package commands

import (
	"github.com/spf13/cobra"
)

func newUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <bundle-dir>",
		Short: "Upload an intent-type bundle to the catalog",
		Long: `Upload an intent-type bundle to the controller's catalog.

The bundle directory holds meta-info.json, the script, the YANG modules
and optional resources, views and intents. Everything local is validated
before the first remote call. Views and intents are applied after the
catalog write, aborting on the first failure.`,
		Example: `  # Upload a bundle directory
  ibnctl upload ./bundles/iplink

  # The meta-info.json path works too
  ibnctl upload ./bundles/iplink/meta-info.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			result, err := rt.uploader.UploadPath(ctx, args[0])
			if err != nil {
				// The catalog write may have landed before an auxiliary
				// upload failed; show what happened.
				if result != nil {
					_ = printResult(result)
				}
				return err
			}
			return printResult(result)
		},
	}

	return cmd
}
