package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestOrderedSignalsKeys(t *testing.T) {
	o := OrderedSignals{
		"Zeta":         {{Title: "z"}},
		CategoryTech:   {{Title: "t"}},
		"Alpha":        nil,
		CategoryValues: {},
	}
	keys := o.Keys()
	want := append(append([]Category(nil), Categories...), "Alpha", "Zeta")
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestOrderedSignalsMarshalOrder(t *testing.T) {
	o := OrderedSignals{
		CategoryValues: {{Title: "v"}},
		CategorySocial: {{Title: "s"}},
	}
	b, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(b)
	prev := -1
	for _, cat := range Categories {
		i := strings.Index(got, `"`+string(cat)+`":`)
		if i < 0 {
			t.Fatalf("category %q missing from %s", cat, got)
		}
		if i < prev {
			t.Fatalf("category %q out of order in %s", cat, got)
		}
		prev = i
	}
	if !strings.Contains(got, `"Tech":[]`) {
		t.Fatalf("empty lens should encode as []: %s", got)
	}

	var back OrderedSignals
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Total() != 2 || back[CategorySocial][0].Title != "s" {
		t.Fatalf("unexpected decode: %+v", back)
	}
}
