package models

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldsCoverEveryStructField(t *testing.T) {
	var r ExtractionResult
	fields := r.Fields()
	require.Equal(t, reflect.TypeOf(r).NumField(), len(fields))

	seenKeys := map[FieldKey]bool{}
	seenPtrs := map[*string]bool{}
	for _, f := range fields {
		require.False(t, seenKeys[f.Key], "duplicate key %s", f.Key)
		require.False(t, seenPtrs[f.Value], "duplicate pointer for %s", f.Key)
		seenKeys[f.Key] = true
		seenPtrs[f.Value] = true
	}

	typ := reflect.TypeOf(r)
	for i, f := range fields {
		require.Equal(t, typ.Field(i).Tag.Get("json"), f.Label, "label order mismatch at %d", i)
	}
}

func TestNewExtractionResultIsAllSentinel(t *testing.T) {
	r := NewExtractionResult()
	require.Len(t, r.Missing(), len(SchemaKeys()))
	for _, f := range r.Fields() {
		require.Equal(t, NotIdentified, *f.Value)
	}
}

func TestGetSet(t *testing.T) {
	r := NewExtractionResult()
	require.True(t, r.Set(FieldAdvisor, "Jane Doe"))
	v, ok := r.Get(FieldAdvisor)
	require.True(t, ok)
	require.Equal(t, "Jane Doe", v)
	require.Equal(t, "Jane Doe", r.Advisor)
	require.False(t, r.Set(FieldKey("nope"), "x"))
	require.Equal(t, "Asesor", r.Label(FieldAdvisor))
	require.NotContains(t, r.Missing(), FieldAdvisor)
}

func TestJSONUsesSpanishLabels(t *testing.T) {
	r := NewExtractionResult()
	r.Advisor = "Jane Doe"
	b, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(b, &raw))
	require.Equal(t, "Jane Doe", raw["Asesor"])
	require.Equal(t, NotIdentified, raw["Hipótesis específica 4"])
	require.Len(t, raw, len(SchemaKeys()))

	var back ExtractionResult
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, r, back)
}
