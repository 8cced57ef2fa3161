package util

import (
	"encoding/base64"
	"errors"
	"strings"
)

var errInvalidDataURL = errors.New("invalid data url")

// DecodeDataURL decodes a base64 data URL into raw bytes and its MIME type.
// A bare base64 string without the data: prefix is accepted and sniffed later.
func DecodeDataURL(raw string) ([]byte, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", errInvalidDataURL
	}

	mimeType := ""
	payload := raw
	if strings.HasPrefix(raw, "data:") {
		comma := strings.Index(raw, ",")
		if comma < 0 {
			return nil, "", errInvalidDataURL
		}
		meta := raw[len("data:"):comma]
		payload = raw[comma+1:]
		if !strings.Contains(meta, "base64") {
			return nil, "", errInvalidDataURL
		}
		if semi := strings.Index(meta, ";"); semi >= 0 {
			mimeType = meta[:semi]
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errInvalidDataURL
	}
	if len(data) == 0 {
		return nil, "", errInvalidDataURL
	}
	return data, mimeType, nil
}
