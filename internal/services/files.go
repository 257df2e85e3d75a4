package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/teslo-shop/apiserver/internal/logging"
	"github.com/teslo-shop/apiserver/internal/storage"
)

const (
	productImagePrefix = "products/"
	msgNotAnImage      = "Make sure that the file is an image"
)

var imageContentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// ObjectStore is the subset of storage used for product images.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// FileService stores uploaded product images and serves them back by name.
type FileService struct {
	objects ObjectStore
	hostAPI string
	log     *slog.Logger
}

func NewFileService(objects ObjectStore, hostAPI string, log *slog.Logger) *FileService {
	return &FileService{
		objects: objects,
		hostAPI: strings.TrimRight(hostAPI, "/"),
		log:     log,
	}
}

// Upload stores an image under a fresh random name and returns its public URL.
// The extension comes from the declared content type, falling back to filename.
func (s *FileService) Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	ext, ok := imageExtension(filename, contentType)
	if !ok {
		return "", newError(KindValidation, msgNotAnImage, nil)
	}

	name := fmt.Sprintf("%s.%s", uuid.NewString(), ext)
	if err := s.objects.Put(ctx, productImagePrefix+name, r, size, imageContentTypes[ext]); err != nil {
		s.log.Error("store product image",
			slog.String("op", "services.FileService.Upload"),
			slog.String("name", name),
			logging.Err(err),
		)
		return "", internalError(err)
	}

	return s.hostAPI + "/files/product/" + name, nil
}

// Open returns the stored image and its content type.
func (s *FileService) Open(ctx context.Context, imageName string) (io.ReadCloser, string, error) {
	notFound := newError(KindValidation, fmt.Sprintf("No product found with image %s", imageName), nil)

	if imageName == "" || path.Base(imageName) != imageName || strings.Contains(imageName, "\\") {
		return nil, "", notFound
	}
	contentType, ok := imageContentTypes[strings.ToLower(strings.TrimPrefix(path.Ext(imageName), "."))]
	if !ok {
		return nil, "", notFound
	}

	rc, err := s.objects.Get(ctx, productImagePrefix+imageName)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", notFound
		}
		s.log.Error("open product image",
			slog.String("op", "services.FileService.Open"),
			slog.String("name", imageName),
			logging.Err(err),
		)
		return nil, "", internalError(err)
	}
	return rc, contentType, nil
}

func imageExtension(filename, contentType string) (string, bool) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if major, minor, found := strings.Cut(mediaType, "/"); found && major == "image" {
		if _, ok := imageContentTypes[minor]; ok {
			return minor, true
		}
		return "", false
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if _, ok := imageContentTypes[ext]; ok {
		return ext, true
	}
	return "", false
}
