package ibn

import (
	"context"
	"strings"
	"testing"

	"github.com/openibn/openibn/pkg/restconf"
)

// fakeTransport records every request and routes responses through a
// handler. Shared by the reader, runner and reconciler tests.
type fakeTransport struct {
	requests []sentRequest
	handler  func(method, path string, body any) (int, any, error)
}

type sentRequest struct {
	method  string
	path    string
	body    any
	headers map[string]string
}

func (f *fakeTransport) Send(ctx context.Context, method, path string, body any, headers map[string]string) (int, any, error) {
	f.requests = append(f.requests, sentRequest{method: method, path: path, body: body, headers: headers})
	if f.handler == nil {
		return 200, map[string]any{}, nil
	}
	return f.handler(method, path, body)
}

func (f *fakeTransport) methods() []string {
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.method)
	}
	return out
}

func notFound(method, path string) error {
	return &restconf.RequestError{StatusCode: 404, Method: method, Path: path}
}

func intentDoc(config map[string]any, state string) map[string]any {
	return map[string]any{
		"ibn:intent": map[string]any{
			"required-network-state":   state,
			"ibn:intent-specific-data": config,
		},
	}
}

func testIntent() Intent {
	return Intent{
		Target:     "10.0.0.1",
		IntentType: "iplink",
		Version:    1,
		Config:     map[string]any{"mtu": 9000},
	}
}

func TestReconciler_ReconcileIntent_CreatesWhenAbsent(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			if method == "GET" {
				return 404, nil, notFound(method, path)
			}
			return 201, nil, nil
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	result, err := r.ReconcileIntent(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("ReconcileIntent failed: %v", err)
	}
	if !result.Changed {
		t.Error("Expected changed=true for create")
	}
	if !strings.Contains(result.Message, "created") {
		t.Errorf("Expected create message, got %q", result.Message)
	}

	if len(transport.requests) != 2 {
		t.Fatalf("Expected GET then POST, got %v", transport.methods())
	}
	create := transport.requests[1]
	if create.method != "POST" || create.path != "/restconf/data/ibn:ibn" {
		t.Errorf("Unexpected create request %s %s", create.method, create.path)
	}
	doc, _ := create.body.(map[string]any)["ibn:intent"].(map[string]any)
	if doc["target"] != "10.0.0.1" || doc["intent-type"] != "iplink" || doc["intent-type-version"] != 1 {
		t.Errorf("Unexpected create document %v", doc)
	}
	if doc["required-network-state"] != "active" {
		t.Errorf("Expected default state active, got %v", doc["required-network-state"])
	}
}

func TestReconciler_ReconcileIntent_NoopWhenConverged(t *testing.T) {
	// Remote numbers come back as float64; the diff must still converge.
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			return 200, intentDoc(map[string]any{"mtu": float64(9000)}, "active"), nil
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	result, err := r.ReconcileIntent(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("ReconcileIntent failed: %v", err)
	}
	if result.Changed {
		t.Error("Expected changed=false when converged")
	}
	if len(transport.requests) != 1 {
		t.Errorf("Expected a single GET and no writes, got %v", transport.methods())
	}
}

func TestReconciler_ReconcileIntent_UpdatesConfig(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			if method == "GET" {
				return 200, intentDoc(map[string]any{"mtu": float64(1500)}, "active"), nil
			}
			return 200, nil, nil
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	result, err := r.ReconcileIntent(context.Background(), testIntent())
	if err != nil {
		t.Fatalf("ReconcileIntent failed: %v", err)
	}
	if !result.Changed {
		t.Error("Expected changed=true for config update")
	}

	if len(transport.requests) != 2 {
		t.Fatalf("Expected GET then PUT, got %v", transport.methods())
	}
	update := transport.requests[1]
	if update.method != "PUT" {
		t.Errorf("Expected PUT, got %s", update.method)
	}
	if update.path != "/restconf/data/ibn:ibn/intent=10.0.0.1,iplink/intent-specific-data" {
		t.Errorf("Expected config sub-resource path, got %q", update.path)
	}
	if _, ok := update.body.(map[string]any)["ibn:intent-specific-data"]; !ok {
		t.Errorf("Expected intent-specific-data body, got %v", update.body)
	}
}

func TestReconciler_ReconcileIntent_PatchesStateOnly(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			if method == "GET" {
				return 200, intentDoc(map[string]any{"mtu": float64(9000)}, "active"), nil
			}
			return 200, nil, nil
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	desired := testIntent()
	desired.DesiredState = StateSuspend

	result, err := r.ReconcileIntent(context.Background(), desired)
	if err != nil {
		t.Fatalf("ReconcileIntent failed: %v", err)
	}
	if !result.Changed {
		t.Error("Expected changed=true for state change")
	}

	if len(transport.requests) != 2 {
		t.Fatalf("Expected GET then PATCH, got %v", transport.methods())
	}
	patch := transport.requests[1]
	if patch.method != "PATCH" {
		t.Errorf("Expected PATCH, got %s", patch.method)
	}
	doc, _ := patch.body.(map[string]any)["ibn:intent"].(map[string]any)
	if doc["required-network-state"] != "suspend" {
		t.Errorf("Expected suspend patch, got %v", doc)
	}
}

func TestReconciler_ReconcileIntent_PartialApplyOnFailedOperation(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			switch {
			case method == "GET":
				return 404, nil, notFound(method, path)
			case strings.HasSuffix(path, "/synchronize"):
				return 200, map[string]any{
					"ietf-restconf:errors": map[string]any{"error": []any{
						map[string]any{"error-message": "device rejected config"},
					}},
				}, nil
			default:
				return 201, nil, nil
			}
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	desired := testIntent()
	desired.Perform = OperationSynchronize

	result, err := r.ReconcileIntent(context.Background(), desired)
	if err == nil {
		t.Fatal("Expected partial-apply error")
	}
	if !restconf.IsPartialApply(err) {
		t.Errorf("Expected partial-apply classification, got %v", err)
	}
	if !strings.Contains(err.Error(), "device rejected config") {
		t.Errorf("Expected envelope message in error, got %q", err.Error())
	}
	if result == nil {
		t.Fatal("Expected result alongside the error: the write landed")
	}
	if !result.Changed {
		t.Error("Expected changed=true: the intent was created")
	}
	if !result.SyncResult.Failed() {
		t.Error("Expected failed sync result attached")
	}
}

func TestReconciler_ReconcileIntent_AttachesAuditResult(t *testing.T) {
	auditOutput := map[string]any{
		"ibn:output": map[string]any{"audit-report": map[string]any{}},
	}
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			if strings.HasSuffix(path, "/audit") {
				return 200, auditOutput, nil
			}
			return 200, intentDoc(map[string]any{"mtu": float64(9000)}, "active"), nil
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	desired := testIntent()
	desired.Perform = OperationAudit

	result, err := r.ReconcileIntent(context.Background(), desired)
	if err != nil {
		t.Fatalf("ReconcileIntent failed: %v", err)
	}
	if result.Changed {
		t.Error("Expected changed=false: audit alone changes nothing")
	}
	if result.AuditResult == nil || result.AuditResult.Failed() {
		t.Errorf("Expected successful audit result, got %+v", result.AuditResult)
	}
}

func TestReconciler_ReconcileIntent_Validation(t *testing.T) {
	r := NewReconciler(&fakeTransport{}, restconf.DefaultEndpoints())

	tests := []struct {
		name   string
		mutate func(*Intent)
	}{
		{"missing target", func(i *Intent) { i.Target = "" }},
		{"missing intent-type", func(i *Intent) { i.IntentType = "" }},
		{"zero version", func(i *Intent) { i.Version = 0 }},
		{"nil config", func(i *Intent) { i.Config = nil }},
		{"bad state", func(i *Intent) { i.DesiredState = "paused" }},
		{"bad operation", func(i *Intent) { i.Perform = "verify" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desired := testIntent()
			tt.mutate(&desired)
			_, err := r.ReconcileIntent(context.Background(), desired)
			if !restconf.IsValidation(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestReconciler_DeleteIntent_AbsentIsNoop(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			return 404, nil, notFound(method, path)
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	result, err := r.DeleteIntent(context.Background(), "10.0.0.1", "iplink", false)
	if err != nil {
		t.Fatalf("DeleteIntent failed: %v", err)
	}
	if result.Changed {
		t.Error("Expected changed=false for absent intent")
	}
	if len(transport.requests) != 1 {
		t.Errorf("Expected no writes after the GET, got %v", transport.methods())
	}
}

func TestReconciler_DeleteIntent_RemovesRecord(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			if method == "GET" {
				return 200, intentDoc(map[string]any{}, "active"), nil
			}
			return 200, nil, nil
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	result, err := r.DeleteIntent(context.Background(), "10.0.0.1", "iplink", false)
	if err != nil {
		t.Fatalf("DeleteIntent failed: %v", err)
	}
	if !result.Changed {
		t.Error("Expected changed=true")
	}

	got := transport.methods()
	want := []string{"GET", "DELETE"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestReconciler_DeleteIntent_RemoveFromNetworkFirst(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			switch method {
			case "GET":
				return 200, intentDoc(map[string]any{}, "active"), nil
			case "POST":
				return 200, map[string]any{"ibn:output": map[string]any{}}, nil
			default:
				return 200, nil, nil
			}
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	result, err := r.DeleteIntent(context.Background(), "10.0.0.1", "iplink", true)
	if err != nil {
		t.Fatalf("DeleteIntent failed: %v", err)
	}
	if !result.Changed {
		t.Error("Expected changed=true")
	}
	if result.SyncResult == nil {
		t.Error("Expected sync result from deprovisioning")
	}

	got := transport.methods()
	want := []string{"GET", "PATCH", "POST", "DELETE"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}

	patch := transport.requests[1]
	doc, _ := patch.body.(map[string]any)["ibn:intent"].(map[string]any)
	if doc["required-network-state"] != "delete" {
		t.Errorf("Expected state patched to delete, got %v", doc)
	}
}

func TestReconciler_DeleteIntent_PartialApplyKeepsRecord(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			switch method {
			case "GET":
				return 200, intentDoc(map[string]any{}, "active"), nil
			case "POST":
				return 200, map[string]any{
					"errors": map[string]any{"error": []any{
						map[string]any{"error-message": "device offline"},
					}},
				}, nil
			default:
				return 200, nil, nil
			}
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	result, err := r.DeleteIntent(context.Background(), "10.0.0.1", "iplink", true)
	if !restconf.IsPartialApply(err) {
		t.Fatalf("Expected partial-apply error, got %v", err)
	}
	if result == nil || !result.SyncResult.Failed() {
		t.Error("Expected result with failed sync attached")
	}
	for _, req := range transport.requests {
		if req.method == "DELETE" {
			t.Error("Expected no DELETE after failed deprovisioning")
		}
	}
}

func TestReconciler_DeleteIntentType_MissingIsNoop(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			return 404, nil, notFound(method, path)
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	result, err := r.DeleteIntentType(context.Background(), "iplink", 1, false)
	if err != nil {
		t.Fatalf("DeleteIntentType failed: %v", err)
	}
	if result.Changed {
		t.Error("Expected changed=false for missing intent-type")
	}
}

func TestReconciler_DeleteIntentType_RefusesWithoutForce(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			if method == "GET" {
				return 200, map[string]any{"ibn-administration:intent-type": map[string]any{}}, nil
			}
			return 200, map[string]any{
				"ibn:output": map[string]any{
					"intents": map[string]any{"intent": []any{
						map[string]any{"target": "10.0.0.1"},
					}},
				},
			}, nil
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	_, err := r.DeleteIntentType(context.Background(), "iplink", 1, false)
	if !restconf.IsValidation(err) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "1 intent(s)") {
		t.Errorf("Expected intent count in message, got %q", err.Error())
	}
	for _, req := range transport.requests {
		if req.method == "DELETE" {
			t.Error("Expected nothing deleted without force")
		}
	}
}

func TestReconciler_DeleteIntentType_ForceCascades(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			switch method {
			case "GET":
				return 200, map[string]any{"ibn-administration:intent-type": map[string]any{}}, nil
			case "POST":
				return 200, map[string]any{
					"ibn:output": map[string]any{
						"intents": map[string]any{"intent": []any{
							map[string]any{"target": "10.0.0.1"},
							map[string]any{"target": "10.0.0.2"},
						}},
					},
				}, nil
			default:
				return 200, nil, nil
			}
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	result, err := r.DeleteIntentType(context.Background(), "iplink", 1, true)
	if err != nil {
		t.Fatalf("DeleteIntentType failed: %v", err)
	}
	if !result.Changed {
		t.Error("Expected changed=true")
	}
	if !strings.Contains(result.Message, "2 intent(s)") {
		t.Errorf("Expected cascade count in message, got %q", result.Message)
	}

	var deletes []string
	for _, req := range transport.requests {
		if req.method == "DELETE" {
			deletes = append(deletes, req.path)
		}
	}
	if len(deletes) != 3 {
		t.Fatalf("Expected 2 intent deletes plus the catalog delete, got %v", deletes)
	}
	if !strings.HasSuffix(deletes[2], "intent-type=iplink,1") {
		t.Errorf("Expected catalog delete last, got %v", deletes)
	}
}

func TestReconciler_DeleteIntentType_CascadeAbortsOnFirstFailure(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			switch method {
			case "GET":
				return 200, map[string]any{"ibn-administration:intent-type": map[string]any{}}, nil
			case "POST":
				return 200, map[string]any{
					"ibn:output": map[string]any{
						"intents": map[string]any{"intent": []any{
							map[string]any{"target": "10.0.0.1"},
							map[string]any{"target": "10.0.0.2"},
						}},
					},
				}, nil
			default:
				return 500, nil, &restconf.RequestError{StatusCode: 500, Method: method, Path: path}
			}
		},
	}
	r := NewReconciler(transport, restconf.DefaultEndpoints())

	_, err := r.DeleteIntentType(context.Background(), "iplink", 1, true)
	if !restconf.IsRemote(err) {
		t.Fatalf("Expected remote error, got %v", err)
	}

	var deletes int
	for _, req := range transport.requests {
		if req.method == "DELETE" {
			deletes++
		}
	}
	if deletes != 1 {
		t.Errorf("Expected cascade to stop after the first failed delete, got %d deletes", deletes)
	}
}

func TestReconciler_PublishesEvents(t *testing.T) {
	transport := &fakeTransport{
		handler: func(method, path string, body any) (int, any, error) {
			if method == "GET" {
				return 404, nil, notFound(method, path)
			}
			return 201, nil, nil
		},
	}
	events := NewEventPublisher(8)
	sub := events.Subscribe()

	r := NewReconciler(transport, restconf.DefaultEndpoints(), WithEvents(events))
	if _, err := r.ReconcileIntent(context.Background(), testIntent()); err != nil {
		t.Fatalf("ReconcileIntent failed: %v", err)
	}

	select {
	case ev := <-sub:
		if ev.Type != EventIntentCreated {
			t.Errorf("Expected intent.created event, got %q", ev.Type)
		}
		if ev.Target != "10.0.0.1" {
			t.Errorf("Expected event target, got %q", ev.Target)
		}
	default:
		t.Error("Expected a published event")
	}
}
