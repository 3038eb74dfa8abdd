package providers

import "strings"

// ProviderRef names one entry of the QA provider chain, e.g. "openai:work".
// KeyAlias selects which credentials or model the provider resolves.
type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

var extractiveRef = ProviderRef{Raw: "extractive", Name: "extractive"}

func isChainSep(r rune) bool { return r == '|' || r == ',' }

// ParseProviderList splits a chain such as "openai:work|extractive".
// Names are lower-cased and repeated entries keep their first position.
// An empty chain falls back to the extractive provider.
func ParseProviderList(raw string) []ProviderRef {
	seen := map[string]bool{}
	var out []ProviderRef
	for _, entry := range strings.FieldsFunc(raw, isChainSep) {
		entry = strings.TrimSpace(entry)
		if entry == "" || seen[strings.ToLower(entry)] {
			continue
		}
		seen[strings.ToLower(entry)] = true
		name, arg, _ := strings.Cut(entry, ":")
		out = append(out, ProviderRef{
			Raw:      entry,
			Name:     strings.ToLower(strings.TrimSpace(name)),
			KeyAlias: strings.TrimSpace(arg),
		})
	}
	if len(out) == 0 {
		return []ProviderRef{extractiveRef}
	}
	return out
}
