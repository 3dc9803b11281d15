package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURI = errors.New("invalid base64 data URI")

// DecodeBase64Image decodes a `data:image/<ext>;base64,...` payload into raw
// bytes plus the image extension. Recipe images arrive in this form.
func DecodeBase64Image(data string) ([]byte, string, error) {
	header, encoded, found := strings.Cut(data, ";base64,")
	if !found {
		return nil, "", ErrInvalidDataURI
	}

	if !strings.HasPrefix(header, "data:image/") {
		return nil, "", ErrInvalidDataURI
	}
	ext := strings.TrimPrefix(header, "data:image/")
	if ext == "" {
		return nil, "", ErrInvalidDataURI
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", ErrInvalidDataURI
	}

	return raw, ext, nil
}
