// Package manifest fetches and validates the remote add-on manifest.
//
// The canonical manifest shape is a JSON object keyed by add-on name:
//
//	{
//	  "schema_version": "1.0.0",
//	  "addons": {
//	    "QuestTracker": {
//	      "link": "https://host/qt.zip",
//	      "description": "Quest tracking overlay",
//	      "target_path": "Interface/AddOns"
//	    }
//	  }
//	}
//
// Entry order in the manifest is meaningful to users (the publisher curates
// it), so parsing preserves it instead of round-tripping through a Go map.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SchemaMajor is the manifest schema major version this client understands.
// Manifests declaring a higher major are rejected rather than half-parsed.
const SchemaMajor = 1

// Kind describes how an add-on's payload installs.
type Kind int

const (
	// KindArchive payloads are extracted and placed as a directory tree
	// under target_path/<name>.
	KindArchive Kind = iota
	// KindSingleFile payloads are placed verbatim as target_path/<name>.
	KindSingleFile
)

func (k Kind) String() string {
	if k == KindSingleFile {
		return "single-file"
	}
	return "archive"
}

// Addon is the descriptor for one installable unit. Descriptors are built
// once per run from the manifest and are immutable afterwards; the
// filesystem remains the only authority on what is actually installed.
type Addon struct {
	// Name is the unique key, stable across reinstalls. Used as the final
	// path segment of the installed content, so it must be a safe segment.
	Name string

	// SourceURL is where the payload is fetched from. Either an http(s)
	// URL or a "github:owner/repo" reference resolved at install time.
	SourceURL string

	// Description is human text with no semantic role.
	Description string

	// TargetPath is the directory (relative to the game root) under which
	// the add-on's files live, normalized to host separators.
	TargetPath string

	// DeletePath, when non-empty, overrides TargetPath for uninstall. Used
	// when the install path and the logical identity path differ.
	DeletePath string

	// Kind is derived from the source URL's extension.
	Kind Kind
}

// RemovalPath returns the directory uninstall operates on.
func (a *Addon) RemovalPath() string {
	if a.DeletePath != "" {
		return a.DeletePath
	}
	return a.TargetPath
}

// archiveSuffixes are the payload extensions treated as extractable archives.
// Anything else installs as a single file.
var archiveSuffixes = []string{
	".zip",
	".tar.gz", ".tgz",
	".tar.xz", ".txz",
	".tar.bz2", ".tbz2", ".tbz",
	".tar.zst", ".tzst",
	".tar.lz", ".tlz",
	".tar",
}

// KindFromURL derives the payload kind from a source URL's extension.
// Query strings are ignored; github: references resolve to release archives.
func KindFromURL(rawURL string) Kind {
	if strings.HasPrefix(rawURL, "github:") {
		return KindArchive
	}
	p := rawURL
	if idx := strings.IndexAny(p, "?#"); idx != -1 {
		p = p[:idx]
	}
	lower := strings.ToLower(path.Base(p))
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return KindArchive
		}
	}
	return KindSingleFile
}

// entryConfig is the wire shape of one manifest entry.
type entryConfig struct {
	Link        string `json:"link"`
	Description string `json:"description"`
	TargetPath  string `json:"target_path"`
	DeletePath  string `json:"delete_path"`
}

// Parse decodes and validates manifest JSON, preserving entry order.
// Any invalid entry fails the whole parse: a broken manifest must not
// produce a partially-functional add-on list.
func Parse(data []byte) ([]Addon, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, &Error{Type: ErrTypeParsing, Message: "manifest is not valid JSON", Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &Error{Type: ErrTypeParsing, Message: "manifest root must be a JSON object"}
	}

	var addons []Addon
	sawAddons := false

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &Error{Type: ErrTypeParsing, Message: "malformed manifest", Err: err}
		}
		key, _ := keyTok.(string)

		switch key {
		case "schema_version":
			var v string
			if err := dec.Decode(&v); err != nil {
				return nil, &Error{Type: ErrTypeParsing, Message: "malformed schema_version", Err: err}
			}
			if err := checkSchemaVersion(v); err != nil {
				return nil, err
			}
		case "addons":
			addons, err = parseAddons(dec)
			if err != nil {
				return nil, err
			}
			sawAddons = true
		default:
			// Unknown top-level keys are skipped for forward compatibility.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, &Error{Type: ErrTypeParsing, Message: "malformed manifest", Err: err}
			}
		}
	}

	if !sawAddons {
		return nil, &Error{Type: ErrTypeParsing, Message: `manifest has no "addons" object`}
	}
	return addons, nil
}

// parseAddons walks the "addons" object token by token so the returned slice
// reflects manifest order.
func parseAddons(dec *json.Decoder) ([]Addon, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, &Error{Type: ErrTypeParsing, Message: "malformed addons object", Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &Error{Type: ErrTypeParsing, Message: `"addons" must be a JSON object keyed by name`}
	}

	var addons []Addon
	seen := make(map[string]bool)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &Error{Type: ErrTypeParsing, Message: "malformed addons object", Err: err}
		}
		name, _ := keyTok.(string)

		var entry entryConfig
		if err := dec.Decode(&entry); err != nil {
			return nil, &Error{Type: ErrTypeParsing, Addon: name, Message: fmt.Sprintf("malformed entry %q", name), Err: err}
		}

		addon, err := buildAddon(name, entry)
		if err != nil {
			return nil, err
		}
		if seen[addon.Name] {
			return nil, &Error{Type: ErrTypeValidation, Addon: name, Message: fmt.Sprintf("duplicate add-on %q", name)}
		}
		seen[addon.Name] = true
		addons = append(addons, addon)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, &Error{Type: ErrTypeParsing, Message: "malformed addons object", Err: err}
	}
	return addons, nil
}

// buildAddon validates one entry and normalizes its paths.
func buildAddon(name string, entry entryConfig) (Addon, error) {
	if err := validateName(name); err != nil {
		return Addon{}, &Error{Type: ErrTypeValidation, Addon: name, Message: err.Error()}
	}
	if strings.TrimSpace(entry.Link) == "" {
		return Addon{}, &Error{Type: ErrTypeValidation, Addon: name, Message: fmt.Sprintf("add-on %q has an empty link", name)}
	}

	target, err := normalizeTargetPath(entry.TargetPath)
	if err != nil {
		return Addon{}, &Error{Type: ErrTypeValidation, Addon: name, Message: fmt.Sprintf("add-on %q: %v", name, err)}
	}

	deletePath := ""
	if entry.DeletePath != "" {
		deletePath, err = normalizeTargetPath(entry.DeletePath)
		if err != nil {
			return Addon{}, &Error{Type: ErrTypeValidation, Addon: name, Message: fmt.Sprintf("add-on %q delete_path: %v", name, err)}
		}
	}

	return Addon{
		Name:        name,
		SourceURL:   entry.Link,
		Description: entry.Description,
		TargetPath:  target,
		DeletePath:  deletePath,
		Kind:        KindFromURL(entry.Link),
	}, nil
}

// validateName rejects names unusable as a path segment.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("add-on name is empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("add-on name %q is not a valid path segment", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("add-on name %q contains a path separator", name)
	}
	return nil
}

// normalizeTargetPath converts manifest separators to the host convention
// and rejects anything that could escape the game directory.
func normalizeTargetPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("target_path is empty")
	}

	// Manifests are published with forward slashes; Windows-authored ones
	// occasionally slip through with backslashes.
	normalized := strings.ReplaceAll(p, "\\", "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return "", fmt.Errorf("target_path %q contains a parent-directory segment", p)
		}
	}
	normalized = filepath.FromSlash(normalized)
	if filepath.IsAbs(normalized) {
		return "", fmt.Errorf("target_path %q must be relative to the game directory", p)
	}
	return filepath.Clean(normalized), nil
}

// checkSchemaVersion gates on the manifest's declared schema major.
func checkSchemaVersion(v string) error {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return &Error{Type: ErrTypeParsing, Message: fmt.Sprintf("invalid schema_version %q", v), Err: err}
	}
	if parsed.Major() > SchemaMajor {
		return &Error{
			Type:    ErrTypeSchema,
			Message: fmt.Sprintf("manifest schema %s is newer than this client supports (%d.x)", v, SchemaMajor),
		}
	}
	return nil
}
