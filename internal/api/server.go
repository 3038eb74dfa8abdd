package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tesisflow/internal/config"
	"tesisflow/internal/export"
	"tesisflow/internal/metrics"
	"tesisflow/internal/models"
	"tesisflow/internal/observe"
	"tesisflow/internal/pipeline"
	"tesisflow/internal/query"
	"tesisflow/internal/storage"
	"tesisflow/internal/util"
)

const userHeader = "X-User-ID"

var (
	errMissingQuery = errors.New("Faltan pdf_name o pregunta")
	errInvalidJSON  = errors.New("JSON inválido")
)

type Consultations interface {
	SaveConsultation(ctx context.Context, c models.StoredConsultation) (models.StoredConsultation, error)
	LatestConsultation(ctx context.Context, pdfName string) (models.StoredConsultation, error)
}

type Questions interface {
	SaveQuestion(ctx context.Context, q models.StoredQuestionLog) error
	ListQuestions(ctx context.Context, pdfName string) ([]models.StoredQuestionLog, error)
}

type Processor interface {
	Process(ctx context.Context, path string) pipeline.Report
}

type Answerer interface {
	Ask(ctx context.Context, pdfName, question string) query.Answer
}

type Deps struct {
	Consultations Consultations
	Questions     Questions
	Processor     Processor
	Answerer      Answerer
	Metrics       *metrics.Recorder
	Gatherer      prometheus.Gatherer
	Log           *zap.Logger
}

type Server struct {
	cfg config.Config
	d   Deps
}

func NewServer(cfg config.Config, d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{cfg: cfg, d: d}
}

func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	r.HandleFunc("/export/{pdf_name}", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/consultations/{pdf_name}", s.handleConsultation).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, errors.New("Método no permitido"))
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, http.StatusNotFound, errors.New("Ruta no encontrada"))
	})
	return withCORS(s.cfg.CORSOrigin, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.d.Metrics.Upload("rejected")
			writeErr(w, http.StatusRequestEntityTooLarge, fmt.Errorf("El archivo supera %d MB", s.cfg.MaxUploadBytes()>>20))
			return
		}
		s.d.Metrics.Upload("rejected")
		writeErr(w, http.StatusBadRequest, util.ErrNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	fh, err := uploadedPDF(r.MultipartForm)
	if err != nil {
		s.d.Metrics.Upload("rejected")
		writeErr(w, http.StatusBadRequest, err)
		return
	}

	if err := util.EnsureDir(s.cfg.UploadDir); err != nil {
		s.d.Metrics.Upload("error")
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	hash, path, err := saveUploadedFile(s.cfg.UploadDir, fh)
	if err != nil {
		s.d.Metrics.Upload("error")
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	pdfName := filepath.Base(path)

	rep := s.d.Processor.Process(r.Context(), path)
	c, err := s.d.Consultations.SaveConsultation(r.Context(), models.StoredConsultation{
		PDFName:      pdfName,
		DocumentHash: hash,
		Results:      rep.Result,
		Observations: rep.Observations,
		UserID:       s.userID(r),
	})
	if err != nil {
		s.d.Log.Error("save consultation failed", zap.String("pdf", pdfName), zap.Error(err))
		s.d.Metrics.Upload("error")
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	s.d.Metrics.Upload("ok")
	s.d.Log.Info("upload processed",
		zap.String("pdf", pdfName),
		zap.String("consultation_id", c.ID),
		zap.Int("observations", len(rep.Observations)),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"results":             rep.Result,
		"observations":        observe.RenderAll(rep.Observations),
		"observation_details": rep.Observations,
		"pdf_name":            pdfName,
	})
}

// uploadedPDF picks the "file" part. A form field named file with no file
// attached means the user submitted without choosing one.
func uploadedPDF(form *multipart.Form) (*multipart.FileHeader, error) {
	files := form.File["file"]
	if len(files) == 0 {
		if _, ok := form.Value["file"]; ok {
			return nil, util.ErrEmptyFilename
		}
		return nil, util.ErrNoFile
	}
	fh := files[0]
	name := filepath.Base(strings.TrimSpace(fh.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, util.ErrEmptyFilename
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return nil, util.ErrNotPDF
	}
	return fh, nil
}

type queryRequest struct {
	PDFName  string `json:"pdf_name"`
	Question string `json:"question"`
	Pregunta string `json:"pregunta"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, errInvalidJSON)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		question = strings.TrimSpace(req.Pregunta)
	}
	rawName := strings.TrimSpace(req.PDFName)
	if rawName == "" || question == "" {
		writeErr(w, http.StatusBadRequest, errMissingQuery)
		return
	}
	pdfName := filepath.Base(rawName)

	ans := s.d.Answerer.Ask(r.Context(), pdfName, question)
	// The answer is returned even when the log write fails.
	if err := s.d.Questions.SaveQuestion(r.Context(), models.StoredQuestionLog{
		PDFName:  pdfName,
		Question: question,
		Answer:   ans.Text,
		Strategy: ans.Strategy,
		UserID:   s.userID(r),
	}); err != nil {
		s.d.Log.Warn("save question failed", zap.String("pdf", pdfName), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, ans)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	pdfName := filepath.Base(mux.Vars(r)["pdf_name"])
	c, ok := s.latest(w, r, pdfName)
	if !ok {
		return
	}
	qs, err := s.d.Questions.ListQuestions(r.Context(), pdfName)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, c, qs); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	name := strings.TrimSuffix(pdfName, filepath.Ext(pdfName)) + "_resultados.xlsx"
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, &buf)
}

func (s *Server) handleConsultation(w http.ResponseWriter, r *http.Request) {
	c, ok := s.latest(w, r, filepath.Base(mux.Vars(r)["pdf_name"]))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request, pdfName string) (models.StoredConsultation, bool) {
	c, err := s.d.Consultations.LatestConsultation(r.Context(), pdfName)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeErr(w, http.StatusNotFound, fmt.Errorf("No se encontró una consulta para '%s'", pdfName))
		return c, false
	case err != nil:
		writeErr(w, http.StatusInternalServerError, err)
		return c, false
	}
	return c, true
}

func (s *Server) userID(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(userHeader)); v != "" {
		return v
	}
	return s.cfg.DefaultUserID
}

// saveUploadedFile writes the upload under dstDir through a temp file and a
// rename, so a reader never sees a partial PDF. It returns the sha256 of the
// content and the final path.
func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (hash, path string, err error) {
	finalPath, err := util.SafeJoin(dstDir, fh.Filename)
	if err != nil {
		return "", "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*.pdf")
	if err != nil {
		return "", "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	digest := util.NewDigestReader(src)
	if _, err = io.Copy(tmp, digest); err != nil {
		return "", "", fmt.Errorf("write upload: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", "", fmt.Errorf("close temp: %w", err)
	}
	if err = os.Rename(tmp.Name(), finalPath); err != nil {
		return "", "", fmt.Errorf("atomic move upload: %w", err)
	}
	return digest.Hex(), finalPath, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr keeps 4xx messages as written and hides 5xx details behind a
// generic message, classified the way operators need it.
func writeErr(w http.ResponseWriter, code int, err error) {
	msg := "Error en la solicitud"
	if err != nil {
		msg = err.Error()
	}
	if code >= 500 {
		msg = internalMessage(err)
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func internalMessage(err error) string {
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}
	switch {
	case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
		return "La base de datos no está inicializada"
	case strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"), strings.Contains(raw, "connect"):
		return "La base de datos no está disponible"
	default:
		return "Error interno del servidor"
	}
}

func withCORS(origin string, next http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+userHeader)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListenAndServe serves Routes on cfg.APIAddr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.APIAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
