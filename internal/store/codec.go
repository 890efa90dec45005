package store

import (
	"encoding/json"
	"reflect"

	"github.com/pkg/errors"
)

// toFields flattens a document into its JSON field map.
func toFields(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encoding document")
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errors.Wrap(err, "decoding document fields")
	}
	return m, nil
}

func fromFields[T any](m map[string]any) (T, error) {
	var doc T
	b, err := json.Marshal(m)
	if err != nil {
		return doc, errors.Wrap(err, "encoding document fields")
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, errors.Wrap(err, "decoding document")
	}
	return doc, nil
}

// withID returns doc with its "id" field replaced.
func withID[T any](doc T, id string) (T, error) {
	m, err := toFields(doc)
	if err != nil {
		return doc, err
	}
	m["id"] = id
	return fromFields[T](m)
}

// applyPatch overlays patch onto doc. The id is never changed.
func applyPatch[T any](doc T, patch Patch) (T, error) {
	m, err := toFields(doc)
	if err != nil {
		return doc, err
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		m[k] = v
	}
	return fromFields[T](m)
}

// matcher compares documents against a filter in JSON form, so a
// model.Status and a plain string with the same text match.
type matcher map[string]any

func newMatcher(f Filter) (matcher, error) {
	if len(f) == 0 {
		return nil, nil
	}
	m, err := toFields(map[string]any(f))
	if err != nil {
		return nil, errors.Wrap(err, "encoding filter")
	}
	return matcher(m), nil
}

func (m matcher) match(doc map[string]any) bool {
	for k, want := range m {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

// withoutID copies a patch dropping the id key.
func withoutID(p Patch) Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		if k != "id" {
			out[k] = v
		}
	}
	return out
}
