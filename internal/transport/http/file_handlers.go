package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/media"
)

// FileHandlers provides HTTP handlers for media upload.
type FileHandlers struct {
	blobs media.Store
	log   *zerolog.Logger
}

// NewFileHandlers creates a new file handlers instance.
func NewFileHandlers(blobs media.Store, logger *zerolog.Logger) *FileHandlers {
	return &FileHandlers{
		blobs: blobs,
		log:   logger,
	}
}

// UploadResponse carries the URL of a stored blob.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload accepts a multipart blob and returns its URL. Invalid input and
// a failed write are distinct outcomes: the first is the client's fault,
// the second is ours.
// POST /api/v1/files/upload
func (h *FileHandlers) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable file"})
		return
	}
	defer f.Close()

	url, err := h.blobs.Save(fileHeader.Filename, f)
	if err != nil {
		if errors.Is(err, media.ErrEmptyBlob) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "empty file"})
			return
		}
		h.log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to store blob")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store file"})
		return
	}

	c.JSON(http.StatusOK, UploadResponse{URL: url})
}
