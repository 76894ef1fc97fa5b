// Package bundle assembles intent-type packages from the filesystem and
// uploads them to the controller's catalog, together with their auxiliary
// views and pre-existing intents.
//
// A bundle directory looks like:
//
//	iplink/
//	  meta-info.json            required descriptor
//	  script-content.js         required script (or script-content.mjs)
//	  yang-modules/             required, at least one module
//	  intent-type-resources/    optional, flattened recursively
//	  views/*.viewConfig        optional UI view configs
//	  intents/*.json            optional intents, target encoded in the
//	                            filename
//
// Everything local is validated before the first remote call.
package bundle

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/openibn/openibn/pkg/restconf"
)

const (
	metaFileName    = "meta-info.json"
	yangModulesDir  = "yang-modules"
	resourcesDir    = "intent-type-resources"
	viewsDir        = "views"
	intentsDir      = "intents"
	viewConfigExt   = ".viewConfig"
	intentFileExt   = ".json"
)

// Script file names tried in order; the first match wins.
var scriptFileNames = []string{"script-content.js", "script-content.mjs"}

// Metadata keys the catalog write does not accept.
var excludedMetaKeys = []string{"resourceDirectory", "supported-hardware-types"}

// Module is one YANG module of the bundle.
type Module struct {
	Name    string
	Content string
}

// Resource is one auxiliary resource file, named by its path relative to
// the resources folder.
type Resource struct {
	Name  string
	Value string
}

// View is one UI view configuration.
type View struct {
	Name    string
	Content string
}

// IntentFile is one pre-existing intent shipped with the bundle. The
// target is URL-decoded from the filename stem.
type IntentFile struct {
	Target string
	Config map[string]any
}

// Bundle is a fully loaded intent-type package.
type Bundle struct {
	// Dir is the resolved bundle directory.
	Dir string

	// Name and Version identify the intent-type.
	Name    string
	Version int

	// Meta is the raw descriptor document.
	Meta map[string]any

	// Script is the inline script body.
	Script string

	// Modules are the YANG modules, at least one.
	Modules []Module

	// Resources are the flattened auxiliary resources, possibly empty.
	Resources []Resource

	// Views are the optional view configurations.
	Views []View

	// Intents are the optional intents shipped with the bundle.
	Intents []IntentFile
}

// Load reads and validates a bundle. Root may be the bundle directory or
// its meta-info.json directly. All failures are validation-classified and
// happen before any remote call.
func Load(root string) (*Bundle, error) {
	dir, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}

	meta, err := readMeta(dir)
	if err != nil {
		return nil, err
	}
	if err := ValidateMeta(meta); err != nil {
		return nil, restconf.NewValidationError(fmt.Sprintf("invalid %s in %s: %v", metaFileName, dir, err))
	}

	name, _ := meta["intent-type"].(string)
	version, err := metaVersion(meta)
	if err != nil {
		return nil, restconf.NewValidationError(fmt.Sprintf("invalid version in %s: %v", metaFileName, err))
	}

	b := &Bundle{
		Dir:     dir,
		Name:    name,
		Version: version,
		Meta:    meta,
	}

	if b.Script, err = readScript(dir); err != nil {
		return nil, err
	}
	if b.Modules, err = readModules(dir); err != nil {
		return nil, err
	}
	if b.Resources, err = readResources(dir); err != nil {
		return nil, err
	}
	if b.Views, err = readViews(dir); err != nil {
		return nil, err
	}
	if b.Intents, err = readIntents(dir); err != nil {
		return nil, err
	}

	return b, nil
}

// CatalogPayload shapes the descriptor into the document the catalog
// write accepts: script and modules inlined, unaccepted keys dropped,
// "intent-type" renamed to "name".
func (b *Bundle) CatalogPayload() map[string]any {
	payload := make(map[string]any, len(b.Meta)+4)
	for k, v := range b.Meta {
		payload[k] = v
	}

	payload["script-content"] = b.Script

	modules := make([]any, 0, len(b.Modules))
	for _, m := range b.Modules {
		modules = append(modules, map[string]any{"name": m.Name, "yang-content": m.Content})
	}
	payload["module"] = modules

	resources := make([]any, 0, len(b.Resources))
	for _, res := range b.Resources {
		resources = append(resources, map[string]any{"name": res.Name, "value": res.Value})
	}
	payload["resource"] = resources

	for _, key := range excludedMetaKeys {
		delete(payload, key)
	}

	// The catalog stores custom-field as an opaque string.
	if cf, ok := payload["custom-field"]; ok {
		if _, isString := cf.(string); !isString {
			if encoded, err := json.Marshal(cf); err == nil {
				payload["custom-field"] = string(encoded)
			}
		}
	}

	delete(payload, "intent-type")
	payload["name"] = b.Name
	payload["version"] = b.Version

	// Older bundles omit the mandatory index on targetted-device entries.
	if devices, ok := payload["targetted-device"].([]any); ok {
		for idx, item := range devices {
			if entry, ok := item.(map[string]any); ok {
				if _, hasIndex := entry["index"]; !hasIndex {
					entry["index"] = idx
				}
			}
		}
	}

	return payload
}

func resolveRoot(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", restconf.NewValidationError(fmt.Sprintf("path does not exist: %s", root))
	}
	if info.IsDir() {
		return root, nil
	}
	if filepath.Base(root) != metaFileName {
		return "", restconf.NewValidationError(fmt.Sprintf(
			"path must be a directory or %s, got: %s", metaFileName, filepath.Base(root)))
	}
	return filepath.Dir(root), nil
}

func readMeta(dir string) (map[string]any, error) {
	raw, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		return nil, restconf.NewValidationError(fmt.Sprintf("%s not found in %s", metaFileName, dir))
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, restconf.NewValidationError(fmt.Sprintf("failed to parse %s: %v", metaFileName, err))
	}
	return meta, nil
}

func metaVersion(meta map[string]any) (int, error) {
	switch v := meta["version"].(type) {
	case float64:
		return int(v), nil
	case string:
		var version int
		if _, err := fmt.Sscanf(v, "%d", &version); err != nil {
			return 0, fmt.Errorf("version %q is not an integer", v)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("version has unsupported type %T", v)
	}
}

func readScript(dir string) (string, error) {
	for _, name := range scriptFileNames {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(raw), nil
		}
	}
	return "", restconf.NewValidationError(fmt.Sprintf(
		"neither %s found in %s", strings.Join(scriptFileNames, " nor "), dir))
}

func readModules(dir string) ([]Module, error) {
	moduleDir := filepath.Join(dir, yangModulesDir)
	entries, err := os.ReadDir(moduleDir)
	if err != nil {
		return nil, restconf.NewValidationError(fmt.Sprintf("%s directory not found in %s", yangModulesDir, dir))
	}
	var modules []Module
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(moduleDir, entry.Name()))
		if err != nil {
			return nil, restconf.NewValidationError(fmt.Sprintf("failed to read module %s: %v", entry.Name(), err))
		}
		modules = append(modules, Module{Name: entry.Name(), Content: string(raw)})
	}
	if len(modules) == 0 {
		return nil, restconf.NewValidationError(fmt.Sprintf("no YANG files found in %s in %s", yangModulesDir, dir))
	}
	return modules, nil
}

func readResources(dir string) ([]Resource, error) {
	resDir := filepath.Join(dir, resourcesDir)
	if info, err := os.Stat(resDir); err != nil || !info.IsDir() {
		return nil, nil
	}
	var resources []Resource
	err := filepath.WalkDir(resDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(resDir, path)
		if err != nil {
			return err
		}
		resources = append(resources, Resource{
			Name:  filepath.ToSlash(rel),
			Value: string(raw),
		})
		return nil
	})
	if err != nil {
		return nil, restconf.NewValidationError(fmt.Sprintf("failed to read %s: %v", resourcesDir, err))
	}
	return resources, nil
}

func readViews(dir string) ([]View, error) {
	viewDir := filepath.Join(dir, viewsDir)
	entries, err := os.ReadDir(viewDir)
	if err != nil {
		return nil, nil
	}
	var views []View
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), viewConfigExt) {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(viewDir, entry.Name()))
		if err != nil {
			return nil, restconf.NewValidationError(fmt.Sprintf("failed to read view %s: %v", entry.Name(), err))
		}
		views = append(views, View{
			Name:    strings.TrimSuffix(entry.Name(), viewConfigExt),
			Content: string(raw),
		})
	}
	return views, nil
}

func readIntents(dir string) ([]IntentFile, error) {
	intentDir := filepath.Join(dir, intentsDir)
	entries, err := os.ReadDir(intentDir)
	if err != nil {
		return nil, nil
	}
	var intents []IntentFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), intentFileExt) {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), intentFileExt)
		target, err := url.QueryUnescape(stem)
		if err != nil {
			return nil, restconf.NewValidationError(fmt.Sprintf("intent filename %s is not a valid encoded target", entry.Name()))
		}
		raw, err := os.ReadFile(filepath.Join(intentDir, entry.Name()))
		if err != nil {
			return nil, restconf.NewValidationError(fmt.Sprintf("failed to read intent %s: %v", entry.Name(), err))
		}
		var config map[string]any
		if err := json.Unmarshal(raw, &config); err != nil {
			return nil, restconf.NewValidationError(fmt.Sprintf("failed to parse intent %s: %v", entry.Name(), err))
		}
		intents = append(intents, IntentFile{Target: target, Config: config})
	}
	return intents, nil
}
