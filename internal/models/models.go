package models

import "time"

type Observation struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Page    int    `json:"page"`
	Context string `json:"context,omitempty"`
}

const (
	ObservationCompleteness = "Completitud"
	ObservationGrammar      = "Gramatical"
	ObservationSpelling     = "Ortográfico"
	ObservationProcessing   = "Procesamiento"
)

type StoredConsultation struct {
	ID           string           `json:"id"`
	PDFName      string           `json:"pdf_name"`
	DocumentHash string           `json:"document_hash,omitempty"`
	Results      ExtractionResult `json:"results"`
	Observations []Observation    `json:"observations"`
	UserID       string           `json:"user_id"`
	CreatedAt    time.Time        `json:"created_at"`
}

type StoredQuestionLog struct {
	ID        string    `json:"id"`
	PDFName   string    `json:"pdf_name"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Strategy  string    `json:"strategy,omitempty"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
