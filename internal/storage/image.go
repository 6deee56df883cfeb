// Package storage хранит логотипы и баннеры компаний: на диске или в MinIO.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp"

	"github.com/bluestock/company-backend/internal/models"
)

var (
	ErrInvalidImage      = errors.New("invalid image")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrTooLarge          = errors.New("image too large")
)

// ObjectStore - хранилище объектов; Put возвращает публичный URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Размер, в который вписывается изображение (только уменьшение).
var maxDimensions = map[string][2]int{
	models.ImageKindLogo:   {400, 400},
	models.ImageKindBanner: {1520, 400},
}

// Разрешённые типы по магическим байтам.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Image - подготовленное к сохранению изображение.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodePayload принимает base64 или data URI и проверяет реальный тип файла.
func DecodePayload(payload string, maxBytes int64) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ",")
		if idx < 0 || !strings.Contains(payload[:idx], ";base64") {
			return nil, "", fmt.Errorf("%w: malformed data URI", ErrInvalidImage)
		}
		payload = payload[idx+1:]
	}
	if payload == "" {
		return nil, "", fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, "", ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", ErrTooLarge
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown || !allowedMimeTypes[kind.MIME.Value] {
		return nil, "", ErrUnsupportedFormat
	}

	return data, kind.MIME.Value, nil
}

// Prepare уменьшает изображение под тип (logo/banner). Меньшие изображения не растягиваются.
func Prepare(data []byte, contentType, kind string) (*Image, error) {
	dims, ok := maxDimensions[kind]
	if !ok {
		return nil, fmt.Errorf("storage: unknown image kind %q", kind)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() <= dims[0] && b.Dy() <= dims[1] {
		return &Image{Data: data, ContentType: contentType, Extension: extensionFor(contentType)}, nil
	}

	resized := imaging.Fit(img, dims[0], dims[1], imaging.Lanczos)

	// webp перекодируется в png: в imaging нет webp-энкодера.
	format, outType := imaging.PNG, "image/png"
	if contentType == "image/jpeg" {
		format, outType = imaging.JPEG, "image/jpeg"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("storage: encode: %w", err)
	}
	return &Image{Data: buf.Bytes(), ContentType: outType, Extension: extensionFor(outType)}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
