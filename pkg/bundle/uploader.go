package bundle

import (
	"context"
	"fmt"

	"github.com/openibn/openibn/pkg/ibn"
	"github.com/openibn/openibn/pkg/restconf"
	"github.com/openibn/openibn/pkg/telemetry"
)

// Uploader writes loaded bundles to the controller.
//
// The catalog entry is written first (create or update, chosen by an
// existence probe). Views and shipped intents are applied afterwards,
// one write each, aborting on the first failure: a partially uploaded
// bundle is surfaced as an error, never silently completed. Re-running
// the upload converges because every write is an idempotent put of the
// file contents.
type Uploader struct {
	transport restconf.Transport
	endpoints restconf.Endpoints
	reader    *ibn.StateReader

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	events  *ibn.EventPublisher
}

// UploaderOption customizes an Uploader.
type UploaderOption func(*Uploader)

// WithLogger attaches a logger.
func WithLogger(logger *telemetry.Logger) UploaderOption {
	return func(u *Uploader) { u.logger = logger.NewComponentLogger("bundle") }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(metrics *telemetry.Metrics) UploaderOption {
	return func(u *Uploader) { u.metrics = metrics }
}

// WithEvents attaches an event publisher.
func WithEvents(events *ibn.EventPublisher) UploaderOption {
	return func(u *Uploader) { u.events = events }
}

// NewUploader creates an Uploader bound to a transport and endpoints.
func NewUploader(transport restconf.Transport, endpoints restconf.Endpoints, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		transport: transport,
		endpoints: endpoints,
		reader:    ibn.NewStateReader(transport, endpoints),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// UploadPath loads the bundle at root and uploads it.
func (u *Uploader) UploadPath(ctx context.Context, root string) (*ibn.ReconcileResult, error) {
	b, err := Load(root)
	if err != nil {
		return nil, err
	}
	return u.Upload(ctx, b)
}

// Upload writes the bundle's catalog entry, views, and intents.
func (u *Uploader) Upload(ctx context.Context, b *Bundle) (*ibn.ReconcileResult, error) {
	result := &ibn.ReconcileResult{
		IntentType: b.Name,
		Version:    b.Version,
	}

	catalogPath := u.endpoints.IntentType(b.Name, b.Version)
	exists, err := u.reader.ResourceExists(ctx, catalogPath)
	if err != nil {
		u.recordUpload("error")
		return nil, restconf.NewRemoteError("failed to probe intent-type", err).
			WithIntentType(b.Name, b.Version)
	}

	body := map[string]any{"ibn-administration:intent-type": b.CatalogPayload()}
	if exists {
		if _, _, err := u.transport.Send(ctx, "PUT", catalogPath, body, nil); err != nil {
			u.recordUpload("error")
			return nil, restconf.NewRemoteError("failed to update intent-type", err).
				WithIntentType(b.Name, b.Version)
		}
		result.Message = fmt.Sprintf("Intent-type %s_v%d updated", b.Name, b.Version)
	} else {
		if _, _, err := u.transport.Send(ctx, "POST", u.endpoints.CatalogRoot, body, nil); err != nil {
			u.recordUpload("error")
			return nil, restconf.NewRemoteError("failed to create intent-type", err).
				WithIntentType(b.Name, b.Version)
		}
		result.Message = fmt.Sprintf("Intent-type %s_v%d created", b.Name, b.Version)
	}
	result.Changed = true

	if u.logger != nil {
		u.logger.WithIntentType(b.Name, b.Version).Info(result.Message)
	}
	if u.events != nil {
		u.events.Publish(ibn.EventIntentTypeWritten, "", b.Name, b.Version, result.Message)
	}

	if err := u.uploadViews(ctx, b); err != nil {
		u.recordUpload("error")
		return result, err
	}
	if len(b.Views) > 0 {
		result.Message += fmt.Sprintf(", %d view(s) uploaded", len(b.Views))
	}

	if err := u.uploadIntents(ctx, b); err != nil {
		u.recordUpload("error")
		return result, err
	}
	if len(b.Intents) > 0 {
		result.Message += fmt.Sprintf(", %d intent(s) uploaded", len(b.Intents))
	}

	u.recordUpload("ok")
	return result, nil
}

// uploadViews patches one view-config per view file.
func (u *Uploader) uploadViews(ctx context.Context, b *Bundle) error {
	if len(b.Views) == 0 {
		return nil
	}
	viewPath := u.endpoints.ViewConfigs(b.Name, b.Version)
	for _, view := range b.Views {
		patch := map[string]any{
			"nsp-intent-type-config-store:intent-type-configs": []any{
				map[string]any{
					"views": []any{
						map[string]any{"name": view.Name, "viewconfig": view.Content},
					},
				},
			},
		}
		if _, _, err := u.transport.Send(ctx, "PATCH", viewPath, patch, yangJSONHeaders()); err != nil {
			return restconf.NewRemoteError(fmt.Sprintf("failed to upload view %q", view.Name), err).
				WithIntentType(b.Name, b.Version)
		}
		if u.logger != nil {
			u.logger.WithIntentType(b.Name, b.Version).Debugf("uploaded view %s", view.Name)
		}
	}
	return nil
}

// uploadIntents creates each shipped intent, falling back to a
// config-only update when create fails because the intent already
// exists. Any other failure aborts the upload.
func (u *Uploader) uploadIntents(ctx context.Context, b *Bundle) error {
	for _, intent := range b.Intents {
		doc := map[string]any{
			"ibn:intent": map[string]any{
				"target":                   intent.Target,
				"intent-type":              b.Name,
				"intent-type-version":      b.Version,
				"ibn:intent-specific-data": intent.Config,
				"required-network-state":   string(ibn.StateActive),
			},
		}
		_, _, err := u.transport.Send(ctx, "POST", u.endpoints.IntentStore, doc, yangJSONHeaders())
		if err == nil {
			continue
		}

		configPath := u.endpoints.IntentConfig(intent.Target, b.Name)
		configBody := map[string]any{"ibn:intent-specific-data": intent.Config}
		if _, _, err := u.transport.Send(ctx, "PUT", configPath, configBody, yangJSONHeaders()); err != nil {
			return restconf.NewRemoteError("failed to upload intent", err).
				WithIntent(intent.Target, b.Name)
		}
		if u.logger != nil {
			u.logger.WithIntent(intent.Target, b.Name).Debug("intent existed, updated config")
		}
	}
	return nil
}

func (u *Uploader) recordUpload(status string) {
	if u.metrics != nil {
		u.metrics.RecordBundleUpload(status)
	}
}

func yangJSONHeaders() map[string]string {
	return map[string]string{
		"Accept":       restconf.ContentTypeYANGJSON,
		"Content-Type": restconf.ContentTypeYANGJSON,
	}
}
