package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ads-sdk/backend/app/dto"
	"github.com/ads-sdk/backend/config"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingAdFlow rejects every creation, standing in for a model-level
// validation failure.
type failingAdFlow struct{}

func (f *failingAdFlow) CreateAd(ctx context.Context, assetPath, appLink string, isBanner bool) (*dto.AdDTO, error) {
	return nil, errors.New("rejected")
}

func (f *failingAdFlow) CreateMultipleAds(ctx context.Context, tuples []dto.AdTuple) (int, error) {
	return 0, errors.New("rejected")
}

func (f *failingAdFlow) ListAds(ctx context.Context) ([]dto.AdDTO, error) {
	return nil, errors.New("rejected")
}

func (f *failingAdFlow) RandomAd(ctx context.Context) (*dto.AdDTO, error) {
	return nil, errors.New("rejected")
}

func newUploadRequest(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("appUrl", "https://example.com/install"))
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func listDir(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestUploadAdRejectsDisallowedExtension(t *testing.T) {
	root := t.TempDir()
	uploadCfg := config.UploadConfig{
		ImagesDir:   filepath.Join(root, "images"),
		VideosDir:   filepath.Join(root, "videos"),
		MaxFileSize: 1 << 20,
	}
	h := NewAdHandler(&failingAdFlow{}, uploadCfg)

	app := fiber.New()
	app.Post("/upload-ad", h.UploadAd)

	body, contentType := newUploadRequest(t, "payload.exe", []byte("MZ not a creative"))
	req := httptest.NewRequest("POST", "/upload-ad", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// The rejected upload must never reach the filesystem.
	assert.Empty(t, listDir(t, uploadCfg.ImagesDir))
	assert.Empty(t, listDir(t, uploadCfg.VideosDir))
}

func TestUploadAdRemovesAssetWhenCreateFails(t *testing.T) {
	root := t.TempDir()
	uploadCfg := config.UploadConfig{
		ImagesDir:   filepath.Join(root, "images"),
		VideosDir:   filepath.Join(root, "videos"),
		MaxFileSize: 1 << 20,
	}
	h := NewAdHandler(&failingAdFlow{}, uploadCfg)

	app := fiber.New()
	app.Post("/upload-ad", h.UploadAd)

	// Valid extension, so the file is stored first; the row insert then
	// fails and the stored file must be cleaned up.
	body, contentType := newUploadRequest(t, "creative.png", []byte("not quite a png"))
	req := httptest.NewRequest("POST", "/upload-ad", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	assert.Empty(t, listDir(t, uploadCfg.ImagesDir))
	assert.Empty(t, listDir(t, uploadCfg.VideosDir))
}
