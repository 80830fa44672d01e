package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	apperrors "github.com/clipstream/clipstream/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeFileHeader builds a *multipart.FileHeader the way gin hands one to the
// service, by writing a real multipart body and parsing it back.
func makeFileHeader(t *testing.T, filename, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func TestUploadImageStoresFileAndReturnsURL(t *testing.T) {
	uploader := &fakeUploader{}
	media := NewMediaService(uploader, 5)

	payload := []byte("fake png bytes")
	file := makeFileHeader(t, "avatar.png", "image/png", payload)

	url, err := media.UploadImage(context.Background(), MediaPrefixAvatars, file)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(uploader.lastKey, MediaPrefixAvatars+"/"))
	assert.Equal(t, "https://cdn.example.com/"+uploader.lastKey, url)
	assert.Equal(t, "image/png", uploader.lastContentType)
	assert.Equal(t, payload, uploader.lastBody)
}

func TestUploadImageRequiresFile(t *testing.T) {
	media := NewMediaService(&fakeUploader{}, 5)

	_, err := media.UploadImage(context.Background(), MediaPrefixAvatars, nil)
	assert.ErrorIs(t, err, apperrors.ErrFileRequired)
}

func TestUploadImageDefaultsContentType(t *testing.T) {
	uploader := &fakeUploader{}
	media := NewMediaService(uploader, 5)

	file := makeFileHeader(t, "blob.bin", "", []byte{0x01, 0x02})

	_, err := media.UploadImage(context.Background(), MediaPrefixCovers, file)
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", uploader.lastContentType)
}

func TestUploadImageRejectsOversizedFile(t *testing.T) {
	media := NewMediaService(&fakeUploader{}, 1)

	file := makeFileHeader(t, "huge.png", "image/png", bytes.Repeat([]byte{0xAB}, 2<<20))

	_, err := media.UploadImage(context.Background(), MediaPrefixAvatars, file)
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
}

func TestUploadImageWrapsStorageFailure(t *testing.T) {
	uploader := &fakeUploader{err: errors.New("bucket unreachable")}
	media := NewMediaService(uploader, 5)

	file := makeFileHeader(t, "avatar.png", "image/png", []byte("data"))

	_, err := media.UploadImage(context.Background(), MediaPrefixAvatars, file)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}
