package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

const MaxAvatarSize = 2 << 20

var avatarTypes = []string{"image/png", "image/jpeg", "image/webp"}

// AvatarValidator checks an uploaded avatar by its real content and returns
// the opened file rewound to the start together with its detected mime type.
// On failure the returned int is the status code to answer with.
func AvatarValidator(fh *multipart.FileHeader) (int, multipart.File, string, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, "", ErrNoFile
	}

	if fh.Size > MaxAvatarSize {
		return http.StatusRequestEntityTooLarge, nil, "", ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, "", err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	if !mimetype.EqualsAny(mime.String(), avatarTypes...) {
		f.Close()
		return http.StatusBadRequest, nil, "", ErrFileTypeUnsupported
	}

	// Don't trust the header size, check the content
	_, err = f.Seek(MaxAvatarSize, io.SeekStart)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	buf := make([]byte, 1)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	if n > 0 {
		f.Close()
		return http.StatusRequestEntityTooLarge, nil, "", ErrFileTooLarge
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, "", err
	}

	return 0, f, mime.String(), nil
}
