package tago

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseItems(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  ItemsKind
		count int
	}{
		{"missing", ``, ItemsEmpty, 0},
		{"null", `null`, ItemsEmpty, 0},
		{"empty string", `""`, ItemsEmpty, 0},
		{"no data marker", `"NO_DATA"`, ItemsEmpty, 0},
		{"object without item", `{}`, ItemsEmpty, 0},
		{"item null", `{"item":null}`, ItemsEmpty, 0},
		{"item empty list", `{"item":[]}`, ItemsEmpty, 0},
		{"single object", `{"item":{"nodeid":"A"}}`, ItemsPresent, 1},
		{"list", `{"item":[{"nodeid":"A"},{"nodeid":"B"}]}`, ItemsPresent, 2},
		{"bare list", `[{"nodeid":"A"}]`, ItemsPresent, 1},
		{"number", `42`, ItemsMalformed, 0},
		{"item is number", `{"item":7}`, ItemsMalformed, 0},
		{"broken object", `{"item":`, ItemsMalformed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseItems(json.RawMessage(tt.raw))
			assert.Equal(t, tt.kind, got.Kind)
			assert.Len(t, got.Raw, tt.count)
		})
	}
}

func TestDecodeAllSkipsBadEntries(t *testing.T) {
	items := ParseItems(json.RawMessage(`{"item":[{"nodeid":"A"},"junk",{"nodeid":"B"}]}`))
	out, kind := decodeAll[rawStop](items)
	assert.Equal(t, ItemsPresent, kind)
	assert.Len(t, out, 2)

	items = ParseItems(json.RawMessage(`{"item":["junk"]}`))
	out, kind = decodeAll[rawStop](items)
	assert.Equal(t, ItemsMalformed, kind)
	assert.Empty(t, out)
}
