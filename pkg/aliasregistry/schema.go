package aliasregistry

// AliasRegistry is the reviewed color alias file. Each entry maps a color
// token from cart descriptors to the vendor color names that satisfy it.
type AliasRegistry struct {
	Version     string       `yaml:"version"`
	LastUpdated string       `yaml:"lastUpdated"`
	Entries     []AliasEntry `yaml:"entries"`
}

type AliasEntry struct {
	Token   string   `yaml:"token"`
	Aliases []string `yaml:"aliases"`
	Note    string   `yaml:"note,omitempty"`
}
