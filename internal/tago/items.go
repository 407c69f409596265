package tago

import (
	"bytes"
	"encoding/json"
)

// ItemsKind tags what the payload's items field actually contained
type ItemsKind int

const (
	// ItemsEmpty: items absent, null, an empty string, "NO_DATA" or an empty list.
	ItemsEmpty ItemsKind = iota
	// ItemsPresent: one or more item objects.
	ItemsPresent
	// ItemsMalformed: anything that cannot be read as items.
	ItemsMalformed
)

func (k ItemsKind) String() string {
	switch k {
	case ItemsPresent:
		return "present"
	case ItemsMalformed:
		return "malformed"
	default:
		return "empty"
	}
}

// Items is the decoded items field. Raw holds one entry per item object.
type Items struct {
	Kind ItemsKind
	Raw  []json.RawMessage
}

// ParseItems interprets the polymorphic items field:
// {"item": [...]}, {"item": {...}}, "", "NO_DATA", null or missing.
func ParseItems(raw json.RawMessage) Items {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Items{Kind: ItemsEmpty}
	}

	switch raw[0] {
	case '"':
		// any string (usually "" or "NO_DATA") means no data
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Items{Kind: ItemsMalformed}
		}
		return Items{Kind: ItemsEmpty}
	case '{':
		var wrapper struct {
			Item json.RawMessage `json:"item"`
		}
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return Items{Kind: ItemsMalformed}
		}
		return parseItem(wrapper.Item)
	case '[':
		return parseItem(raw)
	}
	return Items{Kind: ItemsMalformed}
}

func parseItem(raw json.RawMessage) Items {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Items{Kind: ItemsEmpty}
	}

	switch raw[0] {
	case '{':
		return Items{Kind: ItemsPresent, Raw: []json.RawMessage{raw}}
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return Items{Kind: ItemsMalformed}
		}
		if len(list) == 0 {
			return Items{Kind: ItemsEmpty}
		}
		return Items{Kind: ItemsPresent, Raw: list}
	case '"':
		return Items{Kind: ItemsEmpty}
	}
	return Items{Kind: ItemsMalformed}
}

// decodeAll unmarshals each raw item into T, skipping entries that fail.
// If every entry fails the result is reported as malformed.
func decodeAll[T any](items Items) ([]T, ItemsKind) {
	if items.Kind != ItemsPresent {
		return nil, items.Kind
	}
	out := make([]T, 0, len(items.Raw))
	for _, r := range items.Raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, ItemsMalformed
	}
	return out, ItemsPresent
}
