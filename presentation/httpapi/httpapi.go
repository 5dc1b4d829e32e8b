package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/glekoz/grayscale_image/data/storage"
	"github.com/glekoz/grayscale_image/internal/models"
)

const maxSize = 5 << 20

type AppAPI interface {
	CreateBatch(ctx context.Context, service string, maxCount int) (string, error)
	Submit(ctx context.Context, service, batchID, ext string, img []byte) (string, error)
	BatchState(ctx context.Context, service, batchID string) (models.BatchState, error)
	BatchImages(ctx context.Context, service, batchID string) ([]models.BatchImage, error)
}

// Server is the JSON ingress: create a batch, upload originals into it,
// poll its progress. Conversion itself happens behind the queue.
type Server struct {
	app      AppAPI
	log      *slog.Logger
	validate *validator.Validate
	srv      *http.Server
}

func NewServer(port int, app AppAPI, log *slog.Logger) *Server {
	s := &Server{
		app:      app,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%v", port),
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) Run() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /batches", s.createBatch)
	mux.HandleFunc("POST /batches/{id}/images", s.uploadImage)
	mux.HandleFunc("GET /batches/{id}", s.batchState)
	return mux
}

type createBatchRequest struct {
	Service  string `json:"service" validate:"required,lowercase"`
	MaxCount int    `json:"max_count" validate:"gt=0,lte=100"`
}

func (s *Server) createBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	batchID, err := s.app.CreateBatch(r.Context(), req.Service, req.MaxCount)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"batch_id": batchID})
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	type uploadRequest struct {
		Service  string `validate:"required,lowercase"`
		BatchID  string `validate:"required,uuid4"`
		Filename string `validate:"required"`
	}
	req := uploadRequest{
		Service: r.URL.Query().Get("service"),
		BatchID: r.PathValue("id"),
	}

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()
	req.Filename = header.Filename

	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	ext, err := storage.ValidateFilename(req.Filename)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	img, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(img) > maxSize {
		s.writeError(w, http.StatusRequestEntityTooLarge, errors.New("image is too big"))
		return
	}

	// tiff is not in the stdlib sniff table, the decoder vets it instead
	imageType := http.DetectContentType(img)
	switch imageType {
	case "image/jpeg", "image/png", "image/bmp":
	default:
		if ext != ".tiff" {
			s.writeError(w, http.StatusUnsupportedMediaType, models.ErrUnsupportedFormat)
			return
		}
	}

	imageID, err := s.app.Submit(r.Context(), req.Service, req.BatchID, ext, img)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"image_id": imageID})
}

func (s *Server) batchState(w http.ResponseWriter, r *http.Request) {
	service := r.URL.Query().Get("service")
	batchID := r.PathValue("id")
	if service == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("service query parameter is required"))
		return
	}
	state, err := s.app.BatchState(r.Context(), service, batchID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	type stateResponse struct {
		BatchID   string   `json:"batch_id"`
		Requested int      `json:"requested"`
		Converted int      `json:"converted"`
		Status    string   `json:"status"`
		Images    []string `json:"images,omitempty"`
	}
	resp := stateResponse{
		BatchID:   state.BatchID,
		Requested: state.Requested,
		Converted: state.Converted,
		Status:    state.Status,
	}
	imgs, err := s.app.BatchImages(r.Context(), service, batchID)
	if err == nil {
		for _, img := range imgs {
			resp.Images = append(resp.Images, img.ImagePath)
		}
	} else if !errors.Is(err, models.ErrNotFound) {
		s.writeAppError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, models.ErrUniqueViolation):
		s.writeError(w, http.StatusConflict, err)
	case errors.Is(err, models.ErrUnsupportedFormat):
		s.writeError(w, http.StatusUnsupportedMediaType, err)
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidFilename),
		errors.Is(err, models.ErrOperationAction):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.log.Error("request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}
