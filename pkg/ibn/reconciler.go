package ibn

import (
	"context"
	"fmt"

	"github.com/openibn/openibn/pkg/restconf"
	"github.com/openibn/openibn/pkg/telemetry"
)

// Reconciler drives a single intent (or intent-type) to its desired
// state with the minimal set of writes. It keeps no state across calls:
// every invocation re-reads the remote side, so an interrupted run is
// recovered simply by invoking it again.
//
// There is no retry, no optimistic-concurrency protection, and no
// parallelism here. Two concurrent invocations against the same
// (target, intent-type) can race to a lost update; that is a documented
// limitation of the controller API, not something this layer papers over.
type Reconciler struct {
	transport restconf.Transport
	endpoints restconf.Endpoints
	reader    *StateReader
	runner    *OperationRunner

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	events  *EventPublisher
}

// ReconcilerOption customizes a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithLogger attaches a logger.
func WithLogger(logger *telemetry.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.logger = logger.NewComponentLogger("reconciler") }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(metrics *telemetry.Metrics) ReconcilerOption {
	return func(r *Reconciler) { r.metrics = metrics }
}

// WithEvents attaches an event publisher.
func WithEvents(events *EventPublisher) ReconcilerOption {
	return func(r *Reconciler) { r.events = events }
}

// NewReconciler creates a Reconciler bound to a transport and endpoints.
func NewReconciler(transport restconf.Transport, endpoints restconf.Endpoints, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		transport: transport,
		endpoints: endpoints,
		reader:    NewStateReader(transport, endpoints),
		runner:    NewOperationRunner(transport, endpoints),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reader exposes the state reader sharing this reconciler's transport.
func (r *Reconciler) Reader() *StateReader {
	return r.reader
}

// ReconcileIntent creates or updates an intent so the remote side matches
// the desired document, then optionally runs the requested operation.
//
// When a requested audit/synchronize reports an error, the returned
// error is classified partial-apply and the result still carries what
// was actually written plus the operation output: writes are not rolled
// back.
func (r *Reconciler) ReconcileIntent(ctx context.Context, desired Intent) (*ReconcileResult, error) {
	if err := validateIntent(desired); err != nil {
		return nil, err
	}
	if desired.DesiredState == "" {
		desired.DesiredState = StateActive
	}

	timer := telemetry.NewTimer()
	result := &ReconcileResult{
		Target:     desired.Target,
		IntentType: desired.IntentType,
		Version:    desired.Version,
	}

	existing, existingState, err := r.reader.GetIntent(ctx, desired.Target, desired.IntentType)
	switch {
	case restconf.IsNotFound(err):
		if err := r.createIntent(ctx, desired); err != nil {
			return nil, err
		}
		result.Changed = true
		result.Message = fmt.Sprintf("Intent %s/%s created", desired.IntentType, desired.Target)
		r.publish(EventIntentCreated, desired.Target, desired.IntentType, desired.Version, result.Message)
	case err != nil:
		return nil, restconf.NewRemoteError("failed to read intent", err).
			WithIntent(desired.Target, desired.IntentType)
	default:
		configChanged := !ConfigEqual(existing, desired.Config)
		stateChanged := existingState != desired.DesiredState

		if configChanged {
			body := map[string]any{"ibn:intent-specific-data": desired.Config}
			path := r.endpoints.IntentConfig(desired.Target, desired.IntentType)
			if _, _, err := r.transport.Send(ctx, "PUT", path, body, yangHeaders()); err != nil {
				return nil, restconf.NewRemoteError("failed to update intent config", err).
					WithIntent(desired.Target, desired.IntentType)
			}
		}
		if stateChanged {
			if err := r.patchNetworkState(ctx, desired.Target, desired.IntentType, desired.DesiredState); err != nil {
				return nil, err
			}
		}

		result.Changed = configChanged || stateChanged
		if result.Changed {
			result.Message = fmt.Sprintf("Intent %s/%s updated", desired.IntentType, desired.Target)
			r.publish(EventIntentUpdated, desired.Target, desired.IntentType, desired.Version, result.Message)
		} else {
			result.Message = fmt.Sprintf("Intent %s/%s unchanged", desired.IntentType, desired.Target)
		}
	}

	if r.logger != nil {
		r.logger.WithIntent(desired.Target, desired.IntentType).
			WithField("changed", result.Changed).Info(result.Message)
	}

	if desired.Perform != "" {
		opResult := r.runner.Run(ctx, desired.Target, desired.IntentType, desired.Perform)
		switch desired.Perform {
		case OperationAudit:
			result.AuditResult = opResult
		case OperationSynchronize:
			result.SyncResult = opResult
		}
		r.recordOperation(desired.Perform, opResult)
		r.publish(EventOperationRun, desired.Target, desired.IntentType, desired.Version, string(desired.Perform))
		if opResult.Failed() {
			r.recordReconcile("reconcile", "partial-apply", timer)
			return result, operationError(desired.Perform, desired.Target, desired.IntentType, opResult)
		}
	}

	r.recordReconcile("reconcile", outcome(result.Changed), timer)
	return result, nil
}

// DeleteIntent removes an intent from the controller. Idempotent: a
// missing intent is success with changed=false. With removeFromNetwork,
// the desired state is first patched to delete and a synchronize is run
// so the controller unwinds the network configuration before the record
// itself goes away.
func (r *Reconciler) DeleteIntent(ctx context.Context, target, intentType string, removeFromNetwork bool) (*ReconcileResult, error) {
	if target == "" || intentType == "" {
		return nil, restconf.NewValidationError("target and intent_type are required")
	}

	timer := telemetry.NewTimer()
	result := &ReconcileResult{Target: target, IntentType: intentType}

	_, _, err := r.reader.GetIntent(ctx, target, intentType)
	switch {
	case restconf.IsNotFound(err):
		result.Changed = false
		result.Message = fmt.Sprintf("Intent %s/%s already absent", intentType, target)
		r.recordReconcile("delete", "noop", timer)
		return result, nil
	case err != nil:
		return nil, restconf.NewRemoteError("failed to read intent", err).WithIntent(target, intentType)
	}

	if removeFromNetwork {
		if err := r.patchNetworkState(ctx, target, intentType, StateDelete); err != nil {
			return nil, err
		}
		syncResult := r.runner.Run(ctx, target, intentType, OperationSynchronize)
		result.SyncResult = syncResult
		r.recordOperation(OperationSynchronize, syncResult)
		if syncResult.Failed() {
			r.recordReconcile("delete", "partial-apply", timer)
			return result, operationError(OperationSynchronize, target, intentType, syncResult)
		}
	}

	path := r.endpoints.Intent(target, intentType)
	if _, _, err := r.transport.Send(ctx, "DELETE", path, nil, yangHeaders()); err != nil {
		return nil, restconf.NewRemoteError("failed to delete intent", err).WithIntent(target, intentType)
	}

	result.Changed = true
	result.Message = fmt.Sprintf("Intent %s/%s deleted", intentType, target)
	if r.logger != nil {
		r.logger.WithIntent(target, intentType).Info(result.Message)
	}
	r.publish(EventIntentDeleted, target, intentType, 0, result.Message)
	r.recordReconcile("delete", "changed", timer)
	return result, nil
}

// DeleteIntentType removes an intent-type from the catalog. It fails
// closed when intents of that exact version still exist, unless force is
// set, in which case every found intent is deleted first, aborting on
// the first deletion failure.
func (r *Reconciler) DeleteIntentType(ctx context.Context, intentType string, version int, force bool) (*ReconcileResult, error) {
	if intentType == "" || version <= 0 {
		return nil, restconf.NewValidationError("intent_type and version are required")
	}

	timer := telemetry.NewTimer()
	result := &ReconcileResult{IntentType: intentType, Version: version}

	catalogPath := r.endpoints.IntentType(intentType, version)
	exists, err := r.reader.ResourceExists(ctx, catalogPath)
	if err != nil {
		return nil, restconf.NewRemoteError("failed to read intent-type", err).
			WithIntentType(intentType, version)
	}
	if !exists {
		result.Changed = false
		result.Message = fmt.Sprintf("Intent-type %s_v%d does not exist", intentType, version)
		r.recordReconcile("delete-type", "noop", timer)
		return result, nil
	}

	targets, err := r.reader.SearchIntents(ctx, intentType, version, 0)
	if err != nil {
		return nil, restconf.NewRemoteError("failed to search intents", err).
			WithIntentType(intentType, version)
	}

	if len(targets) > 0 && !force {
		return nil, restconf.NewValidationError(fmt.Sprintf(
			"intent-type has %d intent(s); use force to delete them and the intent-type",
			len(targets))).WithIntentType(intentType, version)
	}

	for _, target := range targets {
		path := r.endpoints.Intent(target, intentType)
		if _, _, err := r.transport.Send(ctx, "DELETE", path, nil, yangHeaders()); err != nil {
			return nil, restconf.NewRemoteError("failed to delete intent during cascade", err).
				WithIntent(target, intentType)
		}
		if r.metrics != nil {
			r.metrics.RecordCascadeDeletedIntent()
		}
		r.publish(EventIntentDeleted, target, intentType, version, "deleted by forced intent-type removal")
	}

	if _, _, err := r.transport.Send(ctx, "DELETE", catalogPath, nil, nil); err != nil {
		return nil, restconf.NewRemoteError("failed to delete intent-type", err).
			WithIntentType(intentType, version)
	}

	result.Changed = true
	result.Message = fmt.Sprintf("Intent-type %s_v%d deleted", intentType, version)
	if len(targets) > 0 {
		result.Message += fmt.Sprintf(" with %d intent(s)", len(targets))
	}
	if r.logger != nil {
		r.logger.WithIntentType(intentType, version).Info(result.Message)
	}
	r.publish(EventIntentTypeDeleted, "", intentType, version, result.Message)
	r.recordReconcile("delete-type", "changed", timer)
	return result, nil
}

// createIntent issues the single create write with the full document.
func (r *Reconciler) createIntent(ctx context.Context, desired Intent) error {
	body := map[string]any{
		"ibn:intent": map[string]any{
			"target":                   desired.Target,
			"intent-type":              desired.IntentType,
			"intent-type-version":      desired.Version,
			"ibn:intent-specific-data": desired.Config,
			"required-network-state":   string(desired.DesiredState),
		},
	}
	if _, _, err := r.transport.Send(ctx, "POST", r.endpoints.IntentStore, body, yangHeaders()); err != nil {
		return restconf.NewRemoteError("failed to create intent", err).
			WithIntent(desired.Target, desired.IntentType)
	}
	return nil
}

// patchNetworkState patches only the required-network-state leaf.
func (r *Reconciler) patchNetworkState(ctx context.Context, target, intentType string, state NetworkState) error {
	body := map[string]any{
		"ibn:intent": map[string]any{"required-network-state": string(state)},
	}
	path := r.endpoints.Intent(target, intentType)
	if _, _, err := r.transport.Send(ctx, "PATCH", path, body, yangHeaders()); err != nil {
		return restconf.NewRemoteError("failed to patch network state", err).
			WithIntent(target, intentType)
	}
	return nil
}

// operationError builds the partial-apply error for a failed operation,
// preferring the classified message out of the error envelope.
func operationError(op Operation, target, intentType string, opResult *OperationResult) error {
	msg := restconf.ParseErrorMessage(opResult.ErrorBody)
	if msg == "" {
		msg = restconf.ParseErrorMessage(opResult.Error)
	}
	if msg == "" {
		msg = opResult.Error
	}
	return restconf.NewPartialApplyError(fmt.Sprintf("%s failed: %s", op, msg), nil).
		WithIntent(target, intentType)
}

func validateIntent(desired Intent) error {
	switch {
	case desired.Target == "":
		return restconf.NewValidationError("intent target is required")
	case desired.IntentType == "":
		return restconf.NewValidationError("intent_type is required")
	case desired.Version <= 0:
		return restconf.NewValidationError("intent-type version must be positive").
			WithIntent(desired.Target, desired.IntentType)
	case desired.Config == nil:
		return restconf.NewValidationError("intent config is required").
			WithIntent(desired.Target, desired.IntentType)
	case desired.DesiredState != "" && !desired.DesiredState.Valid():
		return restconf.NewValidationError(fmt.Sprintf("invalid desired state %q", desired.DesiredState)).
			WithIntent(desired.Target, desired.IntentType)
	case desired.Perform != "" && !desired.Perform.Valid():
		return restconf.NewValidationError(fmt.Sprintf("invalid operation %q", desired.Perform)).
			WithIntent(desired.Target, desired.IntentType)
	}
	return nil
}

func (r *Reconciler) publish(eventType EventType, target, intentType string, version int, message string) {
	if r.events != nil {
		r.events.Publish(eventType, target, intentType, version, message)
	}
}

func (r *Reconciler) recordOperation(op Operation, opResult *OperationResult) {
	if r.metrics == nil {
		return
	}
	status := "ok"
	if opResult.Failed() {
		status = "error"
	}
	r.metrics.RecordIntentOperation(string(op), status)
}

func (r *Reconciler) recordReconcile(operation, result string, timer *telemetry.Timer) {
	if r.metrics != nil {
		r.metrics.RecordReconcile(operation, result, timer.Duration())
	}
}

func outcome(changed bool) string {
	if changed {
		return "changed"
	}
	return "noop"
}
