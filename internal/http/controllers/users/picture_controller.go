package users

import (
	"errors"
	"io"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/hellousers/internal/http/dto/users"
	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	svc "github.com/dropDatabas3/hellousers/internal/http/services/users"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

const (
	// MaxPictureSize tope del archivo subido.
	MaxPictureSize = 5 << 20
	pictureField   = "file"
	maxPictureText = "5 MiB"
)

// PictureController foto de perfil.
type PictureController struct {
	service svc.UserService
}

// NewPictureController crea el controller.
func NewPictureController(service svc.UserService) *PictureController {
	return &PictureController{service: service}
}

var errTooLarge = httperrors.ErrFileTooLarge.WithArgs(map[string]any{"max": maxPictureText})

// Upload maneja POST /users/upload/user/picture?id= (multipart, campo "file").
func (c *PictureController) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PictureController.Upload"))

	// margen para los headers del multipart
	r.Body = http.MaxBytesReader(w, r.Body, MaxPictureSize+64<<10)
	if err := r.ParseMultipartForm(MaxPictureSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			helpers.WriteError(w, r, errTooLarge)
			return
		}
		helpers.WriteError(w, r, httperrors.ErrFileRequired.WithCause(err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(pictureField)
	if err != nil {
		helpers.WriteError(w, r, httperrors.ErrFileRequired.WithCause(err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxPictureSize+1))
	if err != nil {
		helpers.WriteError(w, r, httperrors.ErrFileRequired.WithCause(err))
		return
	}
	if len(data) > MaxPictureSize {
		helpers.WriteError(w, r, errTooLarge)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	doc, err := c.service.UploadPicture(ctx, id, dto.Upload{FileName: header.Filename, Data: data})
	if err != nil {
		log.Debug("upload picture failed", logger.Err(err))
		writeUsersError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, r, http.StatusOK, doc)
}
