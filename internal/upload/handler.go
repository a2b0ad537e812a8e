package upload

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/wireframe/service/internal/response"
)

// Client-facing messages. Causes are only logged.
const (
	MsgNoFile      = "No file provided"
	MsgUploadError = "Error uploading file"
)

// FormField is the multipart field carrying the file.
const FormField = "file"

// memoryLimit is how much of a multipart body is kept in memory before
// spilling to temporary files.
const memoryLimit = 8 << 20

// Uploader is the operation the handler depends on.
type Uploader interface {
	Upload(ctx context.Context, req Request) (*Result, error)
}

// Handler holds the HTTP handler for the upload endpoint.
type Handler struct {
	svc      Uploader
	maxBytes int64
	log      *zap.Logger
}

// NewHandler creates a new upload Handler. maxBytes <= 0 disables the body limit.
func NewHandler(svc Uploader, maxBytes int64, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, maxBytes: maxBytes, log: log}
}

// Upload godoc
//
//	@Summary		Upload an image
//	@Description	Store one image in object storage under a generated key and return its public URL.
//	@Tags			upload
//	@Accept			mpfd
//	@Produce		json
//	@Param			file	formData	file	true	"Image file"
//	@Success		200		{object}	Result
//	@Failure		400		{object}	response.ErrorBody
//	@Failure		500		{object}	response.ErrorBody
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	// A urlencoded form can never carry a file. ParseForm must run first:
	// a second call after a failed read reports success.
	if isURLEncodedForm(r) {
		if err := r.ParseForm(); err != nil {
			h.log.Error("parse upload form", zap.Error(err))
			response.InternalError(w, MsgUploadError)
			return
		}
		response.BadRequest(w, MsgNoFile)
		return
	}

	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		h.log.Error("parse upload form", zap.Error(err))
		response.InternalError(w, MsgUploadError)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.log.Warn("remove multipart temp files", zap.Error(err))
		}
	}()

	file, header, err := r.FormFile(FormField)
	if errors.Is(err, http.ErrMissingFile) {
		response.BadRequest(w, MsgNoFile)
		return
	}
	if err != nil {
		h.log.Error("read upload file", zap.Error(err))
		response.InternalError(w, MsgUploadError)
		return
	}
	defer file.Close()

	result, err := h.svc.Upload(r.Context(), Request{
		Body:        file,
		Size:        header.Size,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.log.Error("upload file",
			zap.Error(err),
			zap.String("file_name", header.Filename),
			zap.Int64("size", header.Size),
		)
		response.InternalError(w, MsgUploadError)
		return
	}

	response.OK(w, result)
}

func isURLEncodedForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}
