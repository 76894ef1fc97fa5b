package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openibn/openibn/pkg/bundle"
	"github.com/openibn/openibn/pkg/config"
	"github.com/openibn/openibn/pkg/ibn"
	"github.com/openibn/openibn/pkg/restconf"
	"github.com/openibn/openibn/pkg/telemetry"
)

// runtime bundles the wired-up client stack shared by all commands.
type runtime struct {
	cfg        *config.Config
	tel        *telemetry.Telemetry
	client     *restconf.Client
	endpoints  restconf.Endpoints
	events     *ibn.EventPublisher
	reconciler *ibn.Reconciler
	uploader   *bundle.Uploader
}

func newRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	tel, err := telemetry.NewTelemetry(&cfg.Telemetry)
	if err != nil {
		return nil, err
	}

	client, err := restconf.NewClient(restconf.ClientConfig{
		BaseURL:            cfg.Controller.BaseURL,
		Username:           cfg.Controller.Username,
		Password:           cfg.Controller.Password,
		InsecureSkipVerify: cfg.Controller.InsecureSkipVerify,
		Timeout:            cfg.Controller.Timeout,
	},
		restconf.WithLogger(tel.Logger),
		restconf.WithMetrics(tel.Metrics),
		restconf.WithTracer(tel.Tracer),
	)
	if err != nil {
		return nil, err
	}

	if err := tel.Metrics.StartMetricsServer(); err != nil {
		tel.Logger.WithError(err).Warn("failed to start metrics server")
	}

	endpoints := cfg.RESTConfEndpoints()
	events := ibn.NewEventPublisher(cfg.Events.BufferSize)

	reconciler := ibn.NewReconciler(client, endpoints,
		ibn.WithLogger(tel.Logger),
		ibn.WithMetrics(tel.Metrics),
		ibn.WithEvents(events),
	)
	reconciler.Reader().PageSize = cfg.Search.PageSize

	uploader := bundle.NewUploader(client, endpoints,
		bundle.WithLogger(tel.Logger),
		bundle.WithMetrics(tel.Metrics),
		bundle.WithEvents(events),
	)

	return &runtime{
		cfg:        cfg,
		tel:        tel,
		client:     client,
		endpoints:  endpoints,
		events:     events,
		reconciler: reconciler,
		uploader:   uploader,
	}, nil
}

func (rt *runtime) close(ctx context.Context) {
	rt.events.Close()
	if err := rt.client.Close(ctx); err != nil {
		rt.tel.Logger.WithError(err).Warn("failed to close client session")
	}
	if err := rt.tel.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
	}
}

// printResult writes the reconcile outcome to stdout, as indented JSON
// with --json or as a one-line summary otherwise.
func printResult(result *ibn.ReconcileResult) error {
	if jsonOutput {
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	}
	if result.Changed {
		fmt.Printf("changed: %s\n", result.Message)
	} else {
		fmt.Printf("ok: %s\n", result.Message)
	}
	return nil
}
