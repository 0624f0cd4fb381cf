// Package normalize turns loosely structured generative output into the
// canonical records in package models. Every exported function is total: bad
// input degrades to an empty or heuristic value, never to an error.
package normalize

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ExtractJSON decodes raw as JSON, falling back to the first ```json fenced
// block. ok is false when neither attempt yields a value.
func ExtractJSON(raw string) (v any, ok bool) {
	if v, ok = decode(raw); ok {
		return v, true
	}
	for _, m := range fencedJSON.FindAllStringSubmatch(raw, -1) {
		if v, ok = decode(m[1]); ok {
			return v, true
		}
	}
	return nil, false
}

func decode(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	// trailing garbage after the first value means this was not a JSON document
	if dec.More() {
		return nil, false
	}
	return v, true
}

// stringList keeps the string members of an arbitrary JSON list. Objects
// carrying a name or title are reduced to that field.
func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch t := it.(type) {
		case string:
			out = append(out, t)
		case map[string]any:
			for _, k := range []string{"name", "title", "topic"} {
				if s, ok := t[k].(string); ok && s != "" {
					out = append(out, s)
					break
				}
			}
		}
	}
	return out, true
}

// number reads a JSON number, numeric string or bool-free scalar.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}
