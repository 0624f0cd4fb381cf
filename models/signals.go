package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// OrderedSignals keeps per-category signals and serializes them in lens order
// rather than the alphabetical key order encoding/json uses for maps.
type OrderedSignals map[Category][]Signal

func (o OrderedSignals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := 0
	emit := func(cat Category, signals []Signal) error {
		if signals == nil {
			signals = []Signal{}
		}
		k, err := json.Marshal(string(cat))
		if err != nil {
			return err
		}
		v, err := json.Marshal(signals)
		if err != nil {
			return err
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		written++
		return nil
	}
	for _, cat := range o.Keys() {
		if err := emit(cat, o[cat]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *OrderedSignals) UnmarshalJSON(data []byte) error {
	var raw map[Category][]Signal
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = raw
	return nil
}

// Keys lists every lens in report order followed by any other category
// present, sorted by name.
func (o OrderedSignals) Keys() []Category {
	out := append([]Category(nil), Categories...)
	var extra []Category
	for cat := range o {
		if !isLens(cat) {
			extra = append(extra, cat)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// Total counts signals across every category.
func (o OrderedSignals) Total() int {
	n := 0
	for _, s := range o {
		n += len(s)
	}
	return n
}

func isLens(c Category) bool {
	for _, cat := range Categories {
		if cat == c {
			return true
		}
	}
	return false
}
