package discord

import (
	"bytes"
	"mime/multipart"

	"github.com/pkg/errors"
)

// stickerUploadBody builds the multipart form for the sticker creation
// endpoint, which takes its metadata and the image file in one request.
func stickerUploadBody(name, description, fileName string, file []byte) (contentType string, body []byte, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, value := range map[string]string{
		"name":        name,
		"description": description,
		"tags":        stickerTag,
	} {
		if err := w.WriteField(field, value); err != nil {
			return "", nil, errors.Wrap(err, "writing sticker form field")
		}
	}

	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", nil, errors.Wrap(err, "creating sticker form file")
	}
	if _, err := fw.Write(file); err != nil {
		return "", nil, errors.Wrap(err, "writing sticker file")
	}
	if err := w.Close(); err != nil {
		return "", nil, errors.Wrap(err, "finalizing sticker form")
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}
