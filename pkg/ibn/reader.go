package ibn

import (
	"context"
	"fmt"

	"github.com/openibn/openibn/pkg/restconf"
)

// StateReader fetches current intent state from the controller. All of
// its methods share one not-found policy (see restconf.IsNotFoundError):
// the controller signals absence as a 404, an "invalid-value" error tag,
// or a "not found" message, sometimes inside a 2xx body.
type StateReader struct {
	transport restconf.Transport
	endpoints restconf.Endpoints

	// PageSize bounds one search-intents page.
	PageSize int
}

// NewStateReader creates a StateReader bound to a transport and endpoints.
func NewStateReader(transport restconf.Transport, endpoints restconf.Endpoints) *StateReader {
	return &StateReader{
		transport: transport,
		endpoints: endpoints,
		PageSize:  1000,
	}
}

// yangHeaders asks for YANG-modeled JSON on intent resources.
func yangHeaders() map[string]string {
	return map[string]string{
		"Accept":       restconf.ContentTypeYANGJSON,
		"Content-Type": restconf.ContentTypeYANGJSON,
	}
}

// GetIntent fetches a single intent's config and desired state.
// A missing intent returns a not-found classified error; every other
// transport failure propagates unchanged.
func (r *StateReader) GetIntent(ctx context.Context, target, intentType string) (map[string]any, NetworkState, error) {
	path := r.endpoints.Intent(target, intentType)
	_, body, err := r.transport.Send(ctx, "GET", path, nil, yangHeaders())
	if err != nil {
		if restconf.IsNotFoundError(err) {
			return nil, "", restconf.NewNotFoundError("intent does not exist").WithIntent(target, intentType)
		}
		return nil, "", err
	}
	if restconf.IsNotFoundResponse(body) {
		return nil, "", restconf.NewNotFoundError("intent does not exist").WithIntent(target, intentType)
	}

	doc, ok := body.(map[string]any)
	if !ok {
		return nil, "", restconf.NewNotFoundError("intent does not exist").WithIntent(target, intentType)
	}
	intent := mapField(doc, "ibn:intent", "intent")
	config := mapField(intent, "ibn:intent-specific-data", "intent-specific-data")

	state := StateActive
	if s, ok := intent["required-network-state"].(string); ok && s != "" {
		state = NetworkState(s)
	}
	return config, state, nil
}

// ResourceExists reports whether a GET of path returns a resource.
func (r *StateReader) ResourceExists(ctx context.Context, path string) (bool, error) {
	_, body, err := r.transport.Send(ctx, "GET", path, nil, nil)
	if err != nil {
		if restconf.IsNotFoundError(err) {
			return false, nil
		}
		return false, err
	}
	if restconf.IsNotFoundResponse(body) {
		return false, nil
	}
	_, ok := body.(map[string]any)
	return ok, nil
}

// SearchIntents returns the targets of one page of intents matching the
// exact (intentType, version) pair.
func (r *StateReader) SearchIntents(ctx context.Context, intentType string, version, page int) ([]string, error) {
	pageSize := r.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	filter := map[string]any{
		"ibn:input": map[string]any{
			"filter": map[string]any{
				"config-required": true,
				"intent-type-list": []any{
					map[string]any{
						"intent-type":         intentType,
						"intent-type-version": version,
					},
				},
			},
			"page-number": page,
			"page-size":   pageSize,
		},
	}

	_, body, err := r.transport.Send(ctx, "POST", r.endpoints.SearchIntents, filter, yangHeaders())
	if err != nil {
		return nil, fmt.Errorf("search-intents failed for %s_v%d: %w", intentType, version, err)
	}

	doc, _ := body.(map[string]any)
	output := mapField(doc, "ibn:output", "output")
	intents := mapField(output, "intents", "intent")
	list, _ := intents["intent"].([]any)

	targets := make([]string, 0, len(list))
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if target, ok := entry["target"].(string); ok && target != "" {
			targets = append(targets, target)
		}
	}
	return targets, nil
}

// mapField returns the first present map under one of the given keys.
func mapField(doc map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if m, ok := doc[key].(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}
