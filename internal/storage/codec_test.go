package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"tesisflow/internal/models"
)

func TestResultsRoundTripKeepsValues(t *testing.T) {
	r := models.NewExtractionResult()
	r.Advisor = "Jane Doe"
	r.Title = "Factores que influyen en la morosidad"
	r.Place = "Tingo María, Perú"

	s, err := encodeResults(r)
	require.NoError(t, err)
	back, err := decodeResults([]byte(s))
	require.NoError(t, err)
	require.Equal(t, r, back)
}

func TestDecodeResultsFillsMissingFields(t *testing.T) {
	back, err := decodeResults([]byte(`{"Asesor":"Jane Doe"}`))
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", back.Advisor)
	require.Equal(t, models.NotIdentified, back.Title)

	empty, err := decodeResults(nil)
	require.NoError(t, err)
	require.Equal(t, models.NewExtractionResult(), empty)

	_, err = decodeResults([]byte(`{`))
	require.Error(t, err)
}

func TestObservationsRoundTrip(t *testing.T) {
	obs := []models.Observation{
		{Type: models.ObservationSpelling, Message: "Error ortográfico: 'retaso' debería ser 'retraso'.", Page: 2, Context: "El retaso en los pagos"},
		{Type: models.ObservationCompleteness, Message: "No se identificó el campo 'Lugar'.", Page: 0},
	}
	s, err := encodeObservations(obs)
	require.NoError(t, err)
	back, err := decodeObservations([]byte(s))
	require.NoError(t, err)
	require.Equal(t, obs, back)

	s, err = encodeObservations(nil)
	require.NoError(t, err)
	require.Equal(t, "[]", s)
}

func TestNotFoundIsWrapped(t *testing.T) {
	err := fmt.Errorf("consultation %s: %w", "x.pdf", ErrNotFound)
	require.True(t, errors.Is(err, ErrNotFound))
}
