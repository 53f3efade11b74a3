package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

// ThumbnailWidth ancho de la foto de perfil; el alto mantiene la proporción.
const ThumbnailWidth = 320

// ErrInvalidImage los bytes no decodifican como imagen.
var ErrInvalidImage = errors.New("storage: invalid image")

// Thumbnail decodifica data (jpeg, png, gif, bmp, tiff), respeta la
// orientación EXIF y la re-encodea como JPEG de ThumbnailWidth de ancho.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	thumb := imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
