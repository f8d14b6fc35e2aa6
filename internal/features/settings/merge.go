package settings

import (
	"encoding/json"
	"errors"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/wI2L/jsondiff"
)

// Heal backfills every field missing from stored with its default. Values
// present in stored always win; keys the current schema no longer knows
// are kept. A null is treated as missing, and so is a stored value that
// is not an object.
func Heal(stored []byte) (healed []byte, changed bool, err error) {
	cleaned, err := dropNulls(stored)
	if err != nil {
		return nil, false, err
	}
	if !isObject(cleaned) {
		cleaned = []byte("{}")
	}

	healed, err = jsonpatch.MergePatch(defaultJSON(), cleaned)
	if err != nil {
		return nil, false, err
	}

	patch, err := jsondiff.CompareJSON(stored, healed)
	if err != nil {
		return nil, false, err
	}
	return healed, len(patch) > 0, nil
}

// Merge deep-merges partial over current (RFC 7386) after removing masked
// secrets from partial, then heals whatever partial nulled out.
func Merge(current, partial []byte) ([]byte, error) {
	unmasked, err := stripMasked(partial)
	if err != nil {
		return nil, err
	}

	merged, err := jsonpatch.MergePatch(current, unmasked)
	if err != nil {
		return nil, err
	}

	healed, _, err := Heal(merged)
	return healed, err
}

// Diff describes the change between two documents as a JSON Patch.
func Diff(before, after Document) (jsondiff.Patch, error) {
	return jsondiff.Compare(before, after)
}

func Decode(raw []byte) (Document, error) {
	var doc Document
	err := json.Unmarshal(raw, &doc)
	return doc, err
}

var maskedPaths = [][2]string{
	{"email", "password"},
	{"ldap", "bindPassword"},
}

// ErrNotObject rejects partials that would replace the document wholesale.
var ErrNotObject = errors.New("settings update must be a JSON object")

func stripMasked(partial []byte) ([]byte, error) {
	if !isObject(partial) {
		return nil, ErrNotObject
	}
	var doc map[string]any
	if err := json.Unmarshal(partial, &doc); err != nil {
		return nil, err
	}

	for _, path := range maskedPaths {
		section, ok := doc[path[0]].(map[string]any)
		if !ok {
			continue
		}
		if v, ok := section[path[1]].(string); ok && v == Mask {
			delete(section, path[1])
		}
	}
	return json.Marshal(doc)
}

func isObject(raw []byte) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	_, ok := v.(map[string]any)
	return ok
}

func dropNulls(raw []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(pruneNulls(doc))
}

func pruneNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			t[k] = pruneNulls(child)
		}
		return t
	case []any:
		for i := range t {
			t[i] = pruneNulls(t[i])
		}
		return t
	default:
		return v
	}
}
