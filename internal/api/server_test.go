package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tesisflow/internal/config"
	"tesisflow/internal/export"
	"tesisflow/internal/metrics"
	"tesisflow/internal/models"
	"tesisflow/internal/pipeline"
	"tesisflow/internal/query"
	"tesisflow/internal/storage"
)

type memStore struct {
	consultations []models.StoredConsultation
	questions     []models.StoredQuestionLog
	saveErr       error
}

func (m *memStore) SaveConsultation(ctx context.Context, c models.StoredConsultation) (models.StoredConsultation, error) {
	if m.saveErr != nil {
		return c, m.saveErr
	}
	c.ID = "c-1"
	m.consultations = append(m.consultations, c)
	return c, nil
}

func (m *memStore) LatestConsultation(ctx context.Context, pdfName string) (models.StoredConsultation, error) {
	for i := len(m.consultations) - 1; i >= 0; i-- {
		if m.consultations[i].PDFName == pdfName {
			return m.consultations[i], nil
		}
	}
	return models.StoredConsultation{}, storage.ErrNotFound
}

func (m *memStore) SaveQuestion(ctx context.Context, q models.StoredQuestionLog) error {
	m.questions = append(m.questions, q)
	return nil
}

func (m *memStore) ListQuestions(ctx context.Context, pdfName string) ([]models.StoredQuestionLog, error) {
	out := make([]models.StoredQuestionLog, 0)
	for _, q := range m.questions {
		if q.PDFName == pdfName {
			out = append(out, q)
		}
	}
	return out, nil
}

type stubProcessor struct {
	paths []string
}

func (p *stubProcessor) Process(ctx context.Context, path string) pipeline.Report {
	p.paths = append(p.paths, path)
	res := models.NewExtractionResult()
	res.Advisor = "Jane Doe"
	return pipeline.Report{
		Result: res,
		Observations: []models.Observation{
			{Type: models.ObservationSpelling, Message: "Error ortográfico: 'retaso' debería ser 'retraso'.", Page: 2, Context: "El retaso"},
		},
	}
}

type stubAnswerer struct {
	pdf, question string
}

func (a *stubAnswerer) Ask(ctx context.Context, pdfName, question string) query.Answer {
	a.pdf, a.question = pdfName, question
	return query.Answer{Text: "El asesor de la tesis es: Jane Doe", Strategy: query.StrategyAdvisor}
}

type fixture struct {
	srv   *httptest.Server
	store *memStore
	proc  *stubProcessor
	ans   *stubAnswerer
	dir   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	reg := prometheus.NewRegistry()
	f := &fixture{store: &memStore{}, proc: &stubProcessor{}, ans: &stubAnswerer{}, dir: dir}
	cfg := config.Config{UploadDir: dir, MaxUploadMB: 1, CORSOrigin: "http://localhost:3000", DefaultUserID: "anonymous"}
	s := NewServer(cfg, Deps{
		Consultations: f.store,
		Questions:     f.store,
		Processor:     f.proc,
		Answerer:      f.ans,
		Metrics:       metrics.New(reg),
		Gatherer:      reg,
	})
	f.srv = httptest.NewServer(s.Routes())
	t.Cleanup(f.srv.Close)
	return f
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename == "" {
		require.NoError(t, mw.WriteField(field, ""))
	} else {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestUploadProcessesAndStores(t *testing.T) {
	f := newFixture(t)
	body, ctype := multipartBody(t, "file", "../tesis.pdf", []byte("%PDF-1.4 fake"))
	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set(userHeader, "u-42")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	var out struct {
		Results      map[string]string    `json:"results"`
		Observations []string             `json:"observations"`
		Details      []models.Observation `json:"observation_details"`
		PDFName      string               `json:"pdf_name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "tesis.pdf", out.PDFName)
	require.Equal(t, "Jane Doe", out.Results["Asesor"])
	require.Equal(t, []string{"Página 2: [Ortográfico] Error ortográfico: 'retaso' debería ser 'retraso'. (Contexto: El retaso)"}, out.Observations)
	require.Len(t, out.Details, 1)

	require.Equal(t, []string{filepath.Join(f.dir, "tesis.pdf")}, f.proc.paths)
	saved, err := os.ReadFile(filepath.Join(f.dir, "tesis.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 fake", string(saved))

	require.Len(t, f.store.consultations, 1)
	c := f.store.consultations[0]
	require.Equal(t, "u-42", c.UserID)
	require.Len(t, c.DocumentHash, 64)
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name     string
		field    string
		filename string
		want     string
	}{
		{"no file part", "other", "x.pdf", "No file provided"},
		{"empty selection", "file", "", "No file selected"},
		{"not a pdf", "file", "notes.txt", "Invalid file format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ctype := multipartBody(t, tc.field, tc.filename, []byte("data"))
			resp, err := http.Post(f.srv.URL+"/upload", ctype, body)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Equal(t, tc.want, decodeError(t, resp))
		})
	}
	require.Empty(t, f.proc.paths)
}

func TestUploadStoreFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.store.saveErr = errors.New("dial tcp 127.0.0.1:5432: connection refused")
	body, ctype := multipartBody(t, "file", "tesis.pdf", []byte("%PDF"))
	resp, err := http.Post(f.srv.URL+"/upload", ctype, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "La base de datos no está disponible", decodeError(t, resp))
}

func TestQueryAnswersAndLogs(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Post(f.srv.URL+"/query", "application/json",
		strings.NewReader(`{"pdf_name":"tesis.pdf","pregunta":"¿Quién es el asesor?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ans query.Answer
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ans))
	require.Equal(t, "El asesor de la tesis es: Jane Doe", ans.Text)
	require.Equal(t, query.StrategyAdvisor, ans.Strategy)
	require.Equal(t, "¿Quién es el asesor?", f.ans.question)

	require.Len(t, f.store.questions, 1)
	require.Equal(t, "anonymous", f.store.questions[0].UserID)
	require.Equal(t, query.StrategyAdvisor, f.store.questions[0].Strategy)
}

func TestQueryValidation(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{`{"pdf_name":"tesis.pdf"}`, `{"question":"hola"}`, `{"pdf_name":" ","question":"hola"}`} {
		resp, err := http.Post(f.srv.URL+"/query", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "Faltan pdf_name o pregunta", decodeError(t, resp))
		resp.Body.Close()
	}

	resp, err := http.Post(f.srv.URL+"/query", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportAndConsultation(t *testing.T) {
	f := newFixture(t)
	res := models.NewExtractionResult()
	res.Title = "Morosidad en cooperativas"
	f.store.consultations = append(f.store.consultations, models.StoredConsultation{PDFName: "tesis.pdf", Results: res})
	f.store.questions = append(f.store.questions, models.StoredQuestionLog{PDFName: "tesis.pdf", Question: "¿Título?", Answer: "x"})

	resp, err := http.Get(f.srv.URL + "/export/tesis.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), "tesis_resultados.xlsx")

	wb, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(export.SheetResults)
	require.NoError(t, err)
	require.Equal(t, "Morosidad en cooperativas", rows[1][2])

	resp2, err := http.Get(f.srv.URL + "/consultations/tesis.pdf")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var c models.StoredConsultation
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&c))
	require.Equal(t, "Morosidad en cooperativas", c.Results.Title)
}

func TestExportNotFound(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.srv.URL + "/export/otra.pdf")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "No se encontró una consulta para 'otra.pdf'", decodeError(t, resp))
}

func TestMethodNotAllowedAndPreflight(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.srv.URL + "/upload")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/query", nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusNoContent, resp2.StatusCode)
	require.Contains(t, resp2.Header.Get("Access-Control-Allow-Headers"), userHeader)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, ctype := multipartBody(t, "file", "tesis.pdf", []byte("%PDF"))
	resp, err = http.Post(f.srv.URL+"/upload", ctype, body)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.Contains(t, buf.String(), `tesis_uploads_total{result="ok"} 1`)
}
