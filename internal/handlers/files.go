package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/teslo-shop/apiserver/internal/logging"
)

const (
	maxUploadBytes     = 10 << 20
	maxMultipartMemory = 2 << 20
	formFieldFile      = "file"
	msgNotAnImage      = "Make sure that the file is an image"
)

// FileService is what the file endpoints need from the service layer.
type FileService interface {
	Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error)
	Open(ctx context.Context, imageName string) (io.ReadCloser, string, error)
}

// FileHandler uploads and serves product images.
type FileHandler struct {
	files FileService
	log   *slog.Logger
}

func NewFileHandler(files FileService, log *slog.Logger) *FileHandler {
	return &FileHandler{files: files, log: log}
}

// FileRouter registers file routes on the given router.
func FileRouter(r chi.Router, files FileService, log *slog.Logger) {
	handler := NewFileHandler(files, log)

	r.Get("/product/{imageName}", handler.ServeProductImage)
	r.Post("/product", handler.UploadProductImage)
}

type UploadResponse struct {
	SecureURL string `json:"secureUrl"`
}

func (h *FileHandler) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, msgNotAnImage)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile(formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNotAnImage)
		return
	}
	defer file.Close()

	secureURL, err := h.files.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		h.logFailure(r, "handlers.files.upload", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{SecureURL: secureURL})
}

func (h *FileHandler) ServeProductImage(w http.ResponseWriter, r *http.Request) {
	rc, contentType, err := h.files.Open(r.Context(), chi.URLParam(r, "imageName"))
	if err != nil {
		h.logFailure(r, "handlers.files.serve", err)
		writeServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("stream image", slog.String("request_id", middleware.GetReqID(r.Context())), logging.Err(err))
	}
}

func (h *FileHandler) logFailure(r *http.Request, op string, err error) {
	h.log.Info("request failed",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		logging.Err(err),
	)
}
