package storage

import (
	"encoding/json"
	"fmt"

	"tesisflow/internal/models"
)

// Results and observations are stored as jsonb. They go over the wire as
// text and are decoded from the raw bytes pgx returns.

func encodeResults(r models.ExtractionResult) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	return string(b), nil
}

// decodeResults starts from an all-sentinel result so rows written before a
// field existed still read back complete.
func decodeResults(b []byte) (models.ExtractionResult, error) {
	r := models.NewExtractionResult()
	if len(b) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("decode results: %w", err)
	}
	return r, nil
}

func encodeObservations(obs []models.Observation) (string, error) {
	if obs == nil {
		obs = []models.Observation{}
	}
	b, err := json.Marshal(obs)
	if err != nil {
		return "", fmt.Errorf("encode observations: %w", err)
	}
	return string(b), nil
}

func decodeObservations(b []byte) ([]models.Observation, error) {
	out := make([]models.Observation, 0)
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}
	return out, nil
}
