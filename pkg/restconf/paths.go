package restconf

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoints carries the path templates for the controller's YANG-modeled
// resources. It is a plain value constructed once and passed to the
// components that issue requests; nothing here is process-wide state.
type Endpoints struct {
	// IntentStore is the intent collection resource.
	IntentStore string

	// CatalogRoot is the intent-type catalog resource.
	CatalogRoot string

	// SearchIntents is the search operation resource.
	SearchIntents string

	// ViewConfigStore is the view-config store resource.
	ViewConfigStore string
}

// DefaultEndpoints returns the controller's published resource paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		IntentStore:     "/restconf/data/ibn:ibn",
		CatalogRoot:     "/restconf/data/ibn-administration:ibn-administration/intent-type-catalog",
		SearchIntents:   "/restconf/operations/ibn:search-intents",
		ViewConfigStore: "/restconf/data/nsp-intent-type-config-store:intent-type-config",
	}
}

// Intent returns the path of a single intent. The target is URL-escaped:
// targets may be compositions containing '/', '=' and ','.
func (e Endpoints) Intent(target, intentType string) string {
	return fmt.Sprintf("%s/intent=%s,%s", e.IntentStore, escapeTarget(target), intentType)
}

// escapeTarget percent-encodes every reserved character, including the
// '=' and ',' that delimit list keys. QueryEscape covers those but maps
// space to '+', which the controller does not decode in paths.
func escapeTarget(target string) string {
	return strings.ReplaceAll(url.QueryEscape(target), "+", "%20")
}

// IntentConfig returns the config-only sub-resource of an intent.
func (e Endpoints) IntentConfig(target, intentType string) string {
	return e.Intent(target, intentType) + "/intent-specific-data"
}

// IntentAction returns the action sub-resource ("audit", "synchronize")
// of an intent.
func (e Endpoints) IntentAction(target, intentType, action string) string {
	return e.Intent(target, intentType) + "/" + action
}

// IntentType returns the catalog entry for (name, version).
func (e Endpoints) IntentType(name string, version int) string {
	return fmt.Sprintf("%s/intent-type=%s,%d", e.CatalogRoot, name, version)
}

// ViewConfigs returns the view-config entry for (name, version).
func (e Endpoints) ViewConfigs(name string, version int) string {
	return fmt.Sprintf("%s/intent-type-configs=%s,%d", e.ViewConfigStore, name, version)
}
