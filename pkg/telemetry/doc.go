// Package telemetry provides observability instrumentation for openibn.
//
// It integrates structured logging (zerolog), distributed tracing
// (OpenTelemetry), and metrics (Prometheus) into a unified system for
// monitoring reconciliations, bundle uploads, and RESTCONF traffic.
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceName = "ibnctl"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// Component loggers carry intent identity through the reconcile flow:
//
//	logger := tel.Logger.NewComponentLogger("reconciler")
//	logger = logger.WithIntent("cid001", "iplink")
//	logger.Info("issuing create")
package telemetry
