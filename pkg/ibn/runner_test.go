package ibn

import (
	"context"
	"testing"

	"github.com/openibn/openibn/pkg/restconf"
)

func TestOperationRunner_Run_Success(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			return 200, map[string]any{
				"ibn:output": map[string]any{"audit-report": map[string]any{"misaligned-attribute": []any{}}},
			}, nil
		},
	}
	runner := NewOperationRunner(transport, restconf.DefaultEndpoints())

	result := runner.Run(context.Background(), "10.0.0.1", "iplink", OperationAudit)

	if result.Failed() {
		t.Fatalf("Expected success, got error %q", result.Error)
	}
	if result.Output == nil {
		t.Error("Expected structured output")
	}

	req := transport.requests[0]
	if req.method != "POST" {
		t.Errorf("Expected POST, got %s", req.method)
	}
	if req.path != "/restconf/data/ibn:ibn/intent=10.0.0.1,iplink/audit" {
		t.Errorf("Unexpected action path %q", req.path)
	}
	doc, ok := req.body.(map[string]any)
	if !ok {
		t.Fatalf("Expected map body, got %T", req.body)
	}
	if _, ok := doc["ibn:input"]; !ok {
		t.Error("Expected empty ibn:input envelope in body")
	}
}

func TestOperationRunner_Run_ErrorEnvelopeIn2xx(t *testing.T) {
	envelope := map[string]any{
		"ietf-restconf:errors": map[string]any{"error": []any{
			map[string]any{"error-message": "synchronize failed on device"},
		}},
	}
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			return 200, envelope, nil
		},
	}
	runner := NewOperationRunner(transport, restconf.DefaultEndpoints())

	result := runner.Run(context.Background(), "10.0.0.1", "iplink", OperationSynchronize)

	if !result.Failed() {
		t.Fatal("Expected failure for error envelope in 2xx body")
	}
	if result.ErrorBody == nil {
		t.Error("Expected structured error body to be preserved")
	}
	if got := restconf.ParseErrorMessage(result.ErrorBody); got != "synchronize failed on device" {
		t.Errorf("Expected envelope message, got %q", got)
	}
}

func TestOperationRunner_Run_TransportErrorWithBody(t *testing.T) {
	envelope := map[string]any{
		"errors": map[string]any{"error": []any{
			map[string]any{"error-message": "device unreachable"},
		}},
	}
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			return 500, envelope, &restconf.RequestError{StatusCode: 500, Body: envelope, Method: method, Path: path}
		},
	}
	runner := NewOperationRunner(transport, restconf.DefaultEndpoints())

	result := runner.Run(context.Background(), "10.0.0.1", "iplink", OperationSynchronize)

	if !result.Failed() {
		t.Fatal("Expected failure for transport error")
	}
	if got := restconf.ParseErrorMessage(result.ErrorBody); got != "device unreachable" {
		t.Errorf("Expected typed body to carry the envelope, got %q", got)
	}
}

func TestOperationRunner_Run_PlainTransportError(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			return 0, nil, context.DeadlineExceeded
		},
	}
	runner := NewOperationRunner(transport, restconf.DefaultEndpoints())

	result := runner.Run(context.Background(), "10.0.0.1", "iplink", OperationAudit)

	if !result.Failed() {
		t.Fatal("Expected failure")
	}
	if result.Error == "" {
		t.Error("Expected error text to be set")
	}
	if result.ErrorBody != nil {
		t.Errorf("Expected no structured body for plain error, got %v", result.ErrorBody)
	}
}
