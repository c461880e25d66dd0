package shipping

import (
	"regexp"
	"strconv"
)

var catalogIDPattern = regexp.MustCompile(`^[0-9]{1,6}$`)

// VariantTranslator maps store sync variant ids to the provider's catalog
// variant ids, which are the only ids the rate API accepts.
type VariantTranslator struct {
	mappings map[string]int64
}

func NewVariantTranslator(mappings map[string]int64) *VariantTranslator {
	m := make(map[string]int64, len(mappings))
	for k, v := range mappings {
		m[k] = v
	}
	return &VariantTranslator{mappings: m}
}

// Translate checks the mapping first; short numeric ids are already catalog ids.
func (t *VariantTranslator) Translate(id VariantID) (int64, bool) {
	if catalogID, ok := t.mappings[string(id)]; ok {
		return catalogID, true
	}
	if catalogIDPattern.MatchString(string(id)) {
		n, err := strconv.ParseInt(string(id), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func (t *VariantTranslator) Len() int {
	return len(t.mappings)
}
