package storage

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectContentType determines the MIME type of a file.
//
// Detection priority:
// 1. If providedType is non-empty, use it directly
// 2. Try to detect from file extension using mime.TypeByExtension
// 3. Sniff content from the first 512 bytes of data (if available)
// 4. Fall back to "application/octet-stream"
func DetectContentType(providedType, filename string, data io.Reader) string {
	if providedType != "" {
		return normalizeType(providedType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return normalizeType(contentType)
	}

	if data != nil {
		buffer := make([]byte, 512)
		n, err := io.ReadFull(data, buffer)
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			return normalizeType(http.DetectContentType(buffer[:n]))
		}
	}

	return "application/octet-stream"
}

// SniffImageType returns the sniffed MIME type of an image payload.
// Browsers report whatever the OS tells them, so uploads are checked by content.
func SniffImageType(data []byte) string {
	if len(data) > 512 {
		data = data[:512]
	}
	return normalizeType(http.DetectContentType(data))
}

// AllowedImageTypes defines the MIME types accepted for room photos.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// IsAllowedImageType checks if a content type is an accepted room photo format.
func IsAllowedImageType(contentType string) bool {
	return AllowedImageTypes[normalizeType(contentType)]
}

// normalizeType strips parameters and maps aliases like image/jpg.
func normalizeType(contentType string) string {
	baseType := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
	if baseType == "image/jpg" || baseType == "image/pjpeg" {
		return "image/jpeg"
	}
	return baseType
}
