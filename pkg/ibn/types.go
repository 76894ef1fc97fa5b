package ibn

// NetworkState is the desired network state of an intent.
type NetworkState string

const (
	// StateActive means the intent's configuration is pushed to the network.
	StateActive NetworkState = "active"

	// StateSuspend keeps the intent on the controller without enforcing it.
	StateSuspend NetworkState = "suspend"

	// StateDelete asks the controller to unwind the intent's network
	// changes on the next synchronize.
	StateDelete NetworkState = "delete"
)

// Valid reports whether s is a known network state.
func (s NetworkState) Valid() bool {
	switch s {
	case StateActive, StateSuspend, StateDelete:
		return true
	}
	return false
}

// Operation is a verification or apply action bound to an intent resource.
type Operation string

const (
	// OperationAudit compares the intent's declared vs actual network state.
	OperationAudit Operation = "audit"

	// OperationSynchronize pushes the intent's declared state onto the network.
	OperationSynchronize Operation = "synchronize"
)

// Valid reports whether op is a known operation.
func (op Operation) Valid() bool {
	return op == OperationAudit || op == OperationSynchronize
}

// Intent is a desired configuration instance bound to a target.
// Identity is (Target, IntentType); Target is unique within the realm of
// its intent-type.
type Intent struct {
	// Target is the unique identifier, possibly a composition of
	// target components.
	Target string `json:"target"`

	// IntentType names the intent-type interpreting Config.
	IntentType string `json:"intent_type"`

	// Version is the intent-type version.
	Version int `json:"version"`

	// Config is the opaque YANG-modeled configuration document.
	Config map[string]any `json:"config"`

	// DesiredState is the desired network state; defaults to active.
	DesiredState NetworkState `json:"desired_state"`

	// Perform optionally names an operation to run after the intent is
	// created or updated.
	Perform Operation `json:"perform,omitempty"`
}

// ReconcileResult reports the outcome of one reconciliation, deletion, or
// upload call.
type ReconcileResult struct {
	// Changed is true when something was created, updated, or deleted.
	Changed bool `json:"changed"`

	// Message is the human-readable result.
	Message string `json:"msg"`

	// Target, IntentType and Version identify the touched resource.
	Target     string `json:"target,omitempty"`
	IntentType string `json:"intent_type,omitempty"`
	Version    int    `json:"version,omitempty"`

	// AuditResult holds the audit output when Perform was audit.
	AuditResult *OperationResult `json:"audit_result,omitempty"`

	// SyncResult holds the synchronize output when one was run.
	SyncResult *OperationResult `json:"sync_result,omitempty"`
}

// OperationResult normalizes the outcome of an audit or synchronize run.
// Callers inspect Error only; a transport failure and an error reported by
// the controller look the same here.
type OperationResult struct {
	// Error is set when the operation failed, transport-level or not.
	Error string `json:"error,omitempty"`

	// ErrorBody is the structured error envelope when one was recovered.
	ErrorBody any `json:"restconf_errors,omitempty"`

	// Output is the structured operation output on success.
	Output map[string]any `json:"output,omitempty"`
}

// Failed reports whether the operation reported an error.
func (r *OperationResult) Failed() bool {
	return r != nil && r.Error != ""
}
