package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluestock/company-backend/internal/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePayload_DataURI(t *testing.T) {
	raw := pngBytes(t, 10, 10)
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	data, contentType, err := DecodePayload(payload, 1<<20)

	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, raw, data)
}

func TestDecodePayload_PlainBase64(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(pngBytes(t, 4, 4))

	_, contentType, err := DecodePayload(payload, 1<<20)

	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
}

func TestDecodePayload_RejectsNonImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 not an image at all"))

	_, _, err := DecodePayload(payload, 1<<20)

	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodePayload_RejectsGarbage(t *testing.T) {
	_, _, err := DecodePayload("data:image/png;base64,@@@", 1<<20)
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, _, err = DecodePayload("", 1<<20)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestDecodePayload_TooLarge(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(pngBytes(t, 200, 200))

	_, _, err := DecodePayload(payload, 64)

	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestPrepare_ShrinksLogo(t *testing.T) {
	img, err := Prepare(pngBytes(t, 800, 200), "image/png", models.ImageKindLogo)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 400, decoded.Bounds().Dx())
	assert.Equal(t, 100, decoded.Bounds().Dy())
	assert.Equal(t, ".png", img.Extension)
}

func TestPrepare_KeepsSmallBanner(t *testing.T) {
	raw := pngBytes(t, 300, 80)

	img, err := Prepare(raw, "image/png", models.ImageKindBanner)

	require.NoError(t, err)
	assert.Equal(t, raw, img.Data)
}

func TestPrepare_UnknownKind(t *testing.T) {
	_, err := Prepare(pngBytes(t, 4, 4), "image/png", "avatar")
	assert.Error(t, err)
}

func TestDiskStore_PutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root, "/media/", 1)
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "companies/abc/logo.png", []byte("data"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/media/companies/abc/logo.png", url)

	content, err := os.ReadFile(filepath.Join(root, "companies", "abc", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), content)

	require.NoError(t, store.Delete(context.Background(), "companies/abc/logo.png"))
	_, err = os.Stat(filepath.Join(root, "companies", "abc", "logo.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStore_KeyCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(root, "/media", 1)
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "../../etc/evil.png", []byte("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/media/etc/evil.png", url)

	_, err = os.Stat(filepath.Join(root, "etc", "evil.png"))
	assert.NoError(t, err)
}

func TestDiskStore_SizeLimit(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/media", 1)
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "big.png", make([]byte, 1024*1024+1), "image/png")
	assert.Error(t, err)
}
