package restconf

import (
	"strings"
	"testing"
)

func TestEndpoints_Intent(t *testing.T) {
	e := DefaultEndpoints()

	got := e.Intent("10.0.0.1", "iplink")
	want := "/restconf/data/ibn:ibn/intent=10.0.0.1,iplink"
	if got != want {
		t.Errorf("Intent() = %q, want %q", got, want)
	}
}

func TestEndpoints_Intent_EscapesCompositeTarget(t *testing.T) {
	e := DefaultEndpoints()

	got := e.Intent("port=1/1/c1,router", "equipment")
	if strings.Contains(got, "port=1/1") {
		t.Errorf("Expected reserved characters to be escaped, got %q", got)
	}
	if !strings.Contains(got, "port%3D1%2F1%2Fc1%2Crouter") {
		t.Errorf("Expected percent-encoded target, got %q", got)
	}
}

func TestEndpoints_Intent_EscapesSpaceAsPercent20(t *testing.T) {
	e := DefaultEndpoints()

	got := e.Intent("site a", "vpn")
	if strings.Contains(got, "+") {
		t.Errorf("Expected no '+' for space, got %q", got)
	}
	if !strings.Contains(got, "site%20a") {
		t.Errorf("Expected %%20 for space, got %q", got)
	}
}

func TestEndpoints_IntentConfig(t *testing.T) {
	e := DefaultEndpoints()

	got := e.IntentConfig("10.0.0.1", "iplink")
	want := "/restconf/data/ibn:ibn/intent=10.0.0.1,iplink/intent-specific-data"
	if got != want {
		t.Errorf("IntentConfig() = %q, want %q", got, want)
	}
}

func TestEndpoints_IntentAction(t *testing.T) {
	e := DefaultEndpoints()

	got := e.IntentAction("10.0.0.1", "iplink", "synchronize")
	want := "/restconf/data/ibn:ibn/intent=10.0.0.1,iplink/synchronize"
	if got != want {
		t.Errorf("IntentAction() = %q, want %q", got, want)
	}
}

func TestEndpoints_IntentType(t *testing.T) {
	e := DefaultEndpoints()

	got := e.IntentType("iplink", 2)
	want := "/restconf/data/ibn-administration:ibn-administration/intent-type-catalog/intent-type=iplink,2"
	if got != want {
		t.Errorf("IntentType() = %q, want %q", got, want)
	}
}

func TestEndpoints_ViewConfigs(t *testing.T) {
	e := DefaultEndpoints()

	got := e.ViewConfigs("iplink", 2)
	want := "/restconf/data/nsp-intent-type-config-store:intent-type-config/intent-type-configs=iplink,2"
	if got != want {
		t.Errorf("ViewConfigs() = %q, want %q", got, want)
	}
}
