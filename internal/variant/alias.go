package variant

// AliasTable maps a requested color token to the vendor color names that
// satisfy it. It is immutable after construction.
type AliasTable struct {
	entries map[string][]string
}

// NewAliasTable copies m, folding its keys.
func NewAliasTable(m map[string][]string) AliasTable {
	entries := make(map[string][]string, len(m))
	for token, aliases := range m {
		list := make([]string, 0, len(aliases))
		for _, a := range aliases {
			if a != "" {
				list = append(list, a)
			}
		}
		if len(list) > 0 {
			entries[fold(token)] = list
		}
	}
	return AliasTable{entries: entries}
}

// DefaultAliasTable is the built-in table used when no alias file is configured.
func DefaultAliasTable() AliasTable {
	return NewAliasTable(map[string][]string{
		"autumn": {"Autumn", "Orange", "Brown", "Rust", "Burnt Orange"},
		"black":  {"Black", "Charcoal", "Dark Grey"},
		"white":  {"White", "Off White", "Ivory", "Natural"},
		"blue":   {"Blue", "Navy", "Light Blue", "Royal Blue"},
		"grey":   {"Grey", "Gray", "Sport Grey", "Ash"},
		"gray":   {"Grey", "Gray", "Sport Grey", "Ash"},
		"green":  {"Green", "Forest Green", "Olive"},
		"red":    {"Red", "Crimson", "Burgundy"},
		"pink":   {"Pink", "Light Pink", "Hot Pink"},
	})
}

// Aliases returns the alias list for token, or token itself when it has no entry.
func (t AliasTable) Aliases(token string) []string {
	if list, ok := t.entries[fold(token)]; ok {
		out := make([]string, len(list))
		copy(out, list)
		return out
	}
	return []string{token}
}

func (t AliasTable) Len() int {
	return len(t.entries)
}
