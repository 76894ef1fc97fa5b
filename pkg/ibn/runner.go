package ibn

import (
	"context"
	"errors"
	"fmt"

	"github.com/openibn/openibn/pkg/restconf"
)

// OperationRunner invokes the audit/synchronize actions bound to an
// intent resource and normalizes every outcome into an OperationResult.
// Callers only ever inspect Error: a transport failure and an error the
// controller smuggled into a 2xx body are indistinguishable by design.
type OperationRunner struct {
	transport restconf.Transport
	endpoints restconf.Endpoints
}

// NewOperationRunner creates an OperationRunner.
func NewOperationRunner(transport restconf.Transport, endpoints restconf.Endpoints) *OperationRunner {
	return &OperationRunner{transport: transport, endpoints: endpoints}
}

// Run posts the operation with an empty input envelope. The envelope must
// be present even though it is empty; the controller rejects a null input.
func (r *OperationRunner) Run(ctx context.Context, target, intentType string, op Operation) *OperationResult {
	path := r.endpoints.IntentAction(target, intentType, string(op))
	body := map[string]any{"ibn:input": map[string]any{}}

	_, decoded, err := r.transport.Send(ctx, "POST", path, body, yangHeaders())
	if err != nil {
		return operationResultFromError(err)
	}

	// The controller sometimes returns an error envelope with a 2xx
	// status. Detect it explicitly instead of trusting the status code.
	if restconf.IsErrorResponse(decoded) {
		return &OperationResult{
			Error:     fmt.Sprintf("%v", decoded),
			ErrorBody: decoded,
		}
	}

	if out, ok := decoded.(map[string]any); ok {
		return &OperationResult{Output: out}
	}
	return &OperationResult{Output: map[string]any{"raw": decoded}}
}

// operationResultFromError converts a transport failure into a result
// instead of propagating it. The typed request error carries the decoded
// body directly; re-parsing the error text is only the fallback for
// errors that lost their structure along the way.
func operationResultFromError(err error) *OperationResult {
	var reqErr *restconf.RequestError
	if errors.As(err, &reqErr) && reqErr.Body != nil {
		return &OperationResult{
			Error:     err.Error(),
			ErrorBody: reqErr.Body,
		}
	}
	return &OperationResult{
		Error:     err.Error(),
		ErrorBody: restconf.DecodeErrorBody(err.Error()),
	}
}
