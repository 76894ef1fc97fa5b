package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openibn/openibn/pkg/ibn"
	"github.com/openibn/openibn/pkg/restconf"
	"github.com/spf13/cobra"
)

func newApplyCommand() *cobra.Command {
	var (
		target     string
		intentType string
		version    int
		configJSON string
		configFile string
		state      string
		perform    string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update an intent",
		Long: `Create or update an intent on the controller.

The intent config is compared structurally against the remote side and
only written when it differs. The desired network state is patched
separately. With --perform, an audit or synchronize runs after the
writes; an operation failure is reported but the writes stay in place.`,
		Example: `  # Create or update an intent from a config file
  ibnctl apply --target 10.0.0.1 --intent-type iplink --version 1 --config-file link.json

  # Apply inline config and synchronize
  ibnctl apply --target 10.0.0.1 --intent-type iplink --version 1 \
    --config '{"endpoint-a": "r1", "endpoint-b": "r2"}' --perform synchronize

  # Suspend an intent
  ibnctl apply --target 10.0.0.1 --intent-type iplink --version 1 \
    --config-file link.json --state suspend`,
		RunE: func(cmd *cobra.Command, args []string) error {
			intentConfig, err := loadIntentConfig(configJSON, configFile)
			if err != nil {
				return err
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			defer rt.close(ctx)

			result, err := rt.reconciler.ReconcileIntent(ctx, ibn.Intent{
				Target:       target,
				IntentType:   intentType,
				Version:      version,
				Config:       intentConfig,
				DesiredState: ibn.NetworkState(state),
				Perform:      ibn.Operation(perform),
			})
			if err != nil {
				// A partial apply still produced a result worth showing.
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
	cmd.Flags().IntVar(&version, "version", 0, "intent-type version")
	cmd.Flags().StringVar(&configJSON, "config-json", "", "intent config as inline JSON")
	cmd.Flags().StringVarP(&configFile, "config-file", "f", "", "intent config JSON file")
	cmd.Flags().StringVar(&state, "state", "active", "desired network state (active, suspend, delete)")
	cmd.Flags().StringVar(&perform, "perform", "", "operation to run after apply (audit, synchronize)")
	cmd.MarkFlagRequired("target")
	cmd.MarkFlagRequired("intent-type")
	cmd.MarkFlagRequired("version")

	return cmd
}

// loadIntentConfig decodes the intent config from the inline flag or a
// file, exactly one of which must be set.
func loadIntentConfig(inline, file string) (map[string]any, error) {
	if (inline == "") == (file == "") {
		return nil, fmt.Errorf("exactly one of --config-json or --config-file is required")
	}
	raw := []byte(inline)
	if file != "" {
		var err error
		if raw, err = os.ReadFile(file); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("intent config is not valid JSON: %w", err)
	}
	return doc, nil
}
