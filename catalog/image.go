package catalog

import (
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"strings"
)

const dataURLImagePrefix = "data:image/"

// IsImageDataURL reports whether data is a data URL carrying an image/* payload.
func IsImageDataURL(data string) bool {
	return strings.HasPrefix(data, dataURLImagePrefix)
}

// ImageDataURL encodes raw upload bytes as a data URL. Content that does not
// sniff as image/* is rejected with ErrNotAnImage.
func ImageDataURL(raw []byte) (string, error) {
	contentType := http.DetectContentType(raw)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotAnImage, contentType)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeDataURL splits a base64 image data URL into its content type and bytes.
func DecodeDataURL(data string) (string, []byte, error) {
	if !IsImageDataURL(data) {
		return "", nil, ErrNotAnImage
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(data, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrNotAnImage)
	}
	contentType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: payload is not base64", ErrNotAnImage)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	return contentType, raw, nil
}

// PlaceholderImage renders a grey SVG card naming the missing image, as a data URL.
func PlaceholderImage(description string) string {
	svg := `<svg width="600" height="400" xmlns="http://www.w3.org/2000/svg">` +
		`<rect width="100%" height="100%" fill="#f0f0f0"/>` +
		`<rect x="50" y="50" width="500" height="300" fill="#e0e0e0" stroke="#ccc" stroke-width="2" rx="10"/>` +
		`<text x="300" y="180" font-family="Arial, sans-serif" font-size="18" fill="#666" text-anchor="middle">` +
		html.EscapeString(description) + `</text>` +
		`<text x="300" y="220" font-family="Arial, sans-serif" font-size="14" fill="#999" text-anchor="middle">` +
		`Image placeholder - Add real image to images/folder</text></svg>`
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
