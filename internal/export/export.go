package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"tesisflow/internal/models"
)

const (
	SheetResults      = "Resultados"
	SheetObservations = "Observaciones"
	SheetQuestions    = "Preguntas"
)

// ContentType is the MIME type of the workbook written by Write.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook lays out one consultation: the results as a single form-style row
// under a header of field labels, the observations one per row, and the
// question log. The caller must Close the file.
func Workbook(c models.StoredConsultation, questions []models.StoredQuestionLog) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetObservations, SheetQuestions} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("new sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := writeResults(f, c, header); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeObservations(f, c.Observations, header); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeQuestions(f, questions, header); err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write streams the workbook for c to w.
func Write(w io.Writer, c models.StoredConsultation, questions []models.StoredQuestionLog) error {
	f, err := Workbook(c, questions)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeResults(f *excelize.File, c models.StoredConsultation, style int) error {
	res := c.Results
	fields := res.Fields()
	labels := make([]any, 0, len(fields))
	values := make([]any, 0, len(fields))
	for _, fr := range fields {
		labels = append(labels, fr.Label)
		v := *fr.Value
		// An untouched timestamp takes the consultation time.
		if fr.Key == models.FieldTimestamp && models.IsMissing(v) && !c.CreatedAt.IsZero() {
			v = c.CreatedAt.Format(time.DateTime)
		}
		values = append(values, v)
	}
	return writeTable(f, SheetResults, labels, [][]any{values}, style)
}

func writeObservations(f *excelize.File, obs []models.Observation, style int) error {
	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		rows = append(rows, []any{o.Page, o.Type, o.Message, o.Context})
	}
	return writeTable(f, SheetObservations, []any{"Página", "Tipo", "Mensaje", "Contexto"}, rows, style)
}

func writeQuestions(f *excelize.File, qs []models.StoredQuestionLog, style int) error {
	rows := make([][]any, 0, len(qs))
	for _, q := range qs {
		when := ""
		if !q.CreatedAt.IsZero() {
			when = q.CreatedAt.Format(time.DateTime)
		}
		rows = append(rows, []any{when, q.Question, q.Answer, q.Strategy, q.UserID})
	}
	return writeTable(f, SheetQuestions, []any{"Fecha", "Pregunta", "Respuesta", "Estrategia", "Usuario"}, rows, style)
}

func writeTable(f *excelize.File, sheet string, header []any, rows [][]any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("%s header range: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return fmt.Errorf("%s columns: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 28); err != nil {
		return fmt.Errorf("%s column width: %w", sheet, err)
	}
	return nil
}
