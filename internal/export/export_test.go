package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tesisflow/internal/models"
)

func TestWriteProducesThreeSheets(t *testing.T) {
	res := models.NewExtractionResult()
	res.Advisor = "Jane Doe"
	created := time.Date(2024, 5, 3, 10, 30, 0, 0, time.UTC)
	c := models.StoredConsultation{
		PDFName:   "tesis.pdf",
		Results:   res,
		CreatedAt: created,
		Observations: []models.Observation{
			{Type: models.ObservationSpelling, Message: "Error ortográfico: 'retaso' debería ser 'retraso'.", Page: 2, Context: "El retaso en los pagos"},
		},
	}
	qs := []models.StoredQuestionLog{
		{Question: "¿Quién es el asesor?", Answer: "El asesor de la tesis es: Jane Doe", Strategy: "advisor", UserID: "u1", CreatedAt: created},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, c, qs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{SheetResults, SheetObservations, SheetQuestions}, f.GetSheetList())

	rows, err := f.GetRows(SheetResults)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Marca temporal", rows[0][0])
	require.Equal(t, "2024-05-03 10:30:00", rows[1][0])
	require.Equal(t, "Asesor", rows[0][4])
	require.Equal(t, "Jane Doe", rows[1][4])
	require.Len(t, rows[0], len(models.SchemaKeys()))

	rows, err = f.GetRows(SheetObservations)
	require.NoError(t, err)
	require.Equal(t, []string{"Página", "Tipo", "Mensaje", "Contexto"}, rows[0])
	require.Equal(t, []string{"2", "Ortográfico", "Error ortográfico: 'retaso' debería ser 'retraso'.", "El retaso en los pagos"}, rows[1])

	rows, err = f.GetRows(SheetQuestions)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "¿Quién es el asesor?", rows[1][1])
	require.Equal(t, "advisor", rows[1][3])
}

func TestWorkbookWithNoObservationsOrQuestions(t *testing.T) {
	f, err := Workbook(models.StoredConsultation{Results: models.NewExtractionResult()}, nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetObservations)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = f.GetRows(SheetResults)
	require.NoError(t, err)
	require.Equal(t, models.NotIdentified, rows[1][0])
}
