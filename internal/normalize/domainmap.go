package normalize

import (
	"strings"

	"github.com/mohammad-safakhou/horizon/models"
)

// domainMapShape names which accepted payload layout a decoded value matched.
type domainMapShape int

const (
	shapeUnknown domainMapShape = iota
	// {"topics": {"Core": {"<category>": [...]}, ...}}
	shapeCanonical
	// {"Core": [...] | {"<category>": [...]}, "Adjacent": ..., "Peripheral": ...}
	shapeFlat
)

type domainMapPayload struct {
	shape domainMapShape
	bands map[models.Band]map[models.Category][]string
}

// parseDomainMapPayload tries the canonical layout first and the flat layout
// second. Anything else is reported as shapeUnknown.
func parseDomainMapPayload(v any, category models.Category) domainMapPayload {
	obj, ok := v.(map[string]any)
	if !ok {
		return domainMapPayload{shape: shapeUnknown}
	}
	if inner, ok := obj["topics"].(map[string]any); ok {
		if bands, ok := readBands(inner, category); ok {
			return domainMapPayload{shape: shapeCanonical, bands: bands}
		}
	}
	if bands, ok := readBands(obj, category); ok {
		return domainMapPayload{shape: shapeFlat, bands: bands}
	}
	return domainMapPayload{shape: shapeUnknown}
}

// readBands collects every recognised band key. A band value may be a plain
// list (attributed to category) or a category-keyed object.
func readBands(obj map[string]any, category models.Category) (map[models.Band]map[models.Category][]string, bool) {
	out := make(map[models.Band]map[models.Category][]string, len(models.Bands))
	found := false
	for key, val := range obj {
		band, ok := bandFor(key)
		if !ok {
			continue
		}
		switch t := val.(type) {
		case []any:
			list, _ := stringList(t)
			out[band] = map[models.Category][]string{category: list}
			found = true
		case map[string]any:
			cats := make(map[models.Category][]string, len(t))
			for ck, cv := range t {
				if list, ok := stringList(cv); ok {
					cats[models.Category(ck)] = list
				}
			}
			out[band] = cats
			found = true
		}
	}
	return out, found
}

func bandFor(key string) (models.Band, bool) {
	for _, b := range models.Bands {
		if strings.EqualFold(strings.TrimSpace(key), string(b)) {
			return b, true
		}
	}
	return "", false
}

// DomainMap converts any decoded payload into a canonical map for category.
// Every band is present and carries a (possibly empty) list for category;
// other categories supplied upstream are preserved. Canonical input comes
// back unchanged.
func DomainMap(v any, category models.Category) models.DomainMap {
	payload := parseDomainMapPayload(v, category)
	dm := models.NewDomainMap(category)
	if payload.shape == shapeUnknown {
		return dm
	}
	for band, cats := range payload.bands {
		merged := dm.Topics[band]
		for cat, list := range cats {
			if list == nil {
				list = []string{}
			}
			merged[cat] = list
		}
	}
	return dm
}

// FillEmptyBands injects one source topic into every band whose list for
// category is empty, choosing sourceTopics[bandIndex % len(sourceTopics)].
// The choice is positional only and carries no relevance judgement. dm is
// updated in place and returned.
func FillEmptyBands(dm models.DomainMap, category models.Category, sourceTopics []string) models.DomainMap {
	if len(sourceTopics) == 0 {
		return dm
	}
	if dm.Topics == nil {
		dm = models.NewDomainMap(category)
	}
	for i, band := range models.Bands {
		cats := dm.Topics[band]
		if cats == nil {
			cats = map[models.Category][]string{}
			dm.Topics[band] = cats
		}
		if len(cats[category]) == 0 {
			cats[category] = []string{sourceTopics[i%len(sourceTopics)]}
		}
	}
	return dm
}

// DomainMapFromText extracts, normalizes and back-fills a domain map from raw
// generative output.
func DomainMapFromText(raw string, category models.Category, sourceTopics []string) models.DomainMap {
	v, _ := ExtractJSON(raw)
	return FillEmptyBands(DomainMap(v, category), category, sourceTopics)
}
