package providers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("OpenAI:work | ollama:llama3.1,extractive|extractive")
	require.Len(t, refs, 3)
	require.Equal(t, "openai", refs[0].Name)
	require.Equal(t, "work", refs[0].KeyAlias)
	require.Equal(t, "llama3.1", refs[1].KeyAlias)
	require.Equal(t, "extractive", refs[2].Raw)
	require.Empty(t, refs[2].KeyAlias)

	require.Equal(t, []ProviderRef{extractiveRef}, ParseProviderList(" | "))
}
