package recognize

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp" // register decoder
)

// Image is a loaded input file.
type Image struct {
	Name      string
	MediaType string
	Data      []byte

	Width  int
	Height int
}

// InlineImage is the base64 form of an image, tagged with its media type.
type InlineImage struct {
	MediaType string
	Data      string
}

// mediaTypes lists the formats accepted by both providers, keyed by the
// name image.DecodeConfig reports.
var mediaTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// LoadImage reads path and checks that its header decodes as a supported
// image format, so broken files fail before any request is sent.
func LoadImage(path string) (Image, error) {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, &Error{Op: "read", File: name, Err: err}
	}
	if len(data) == 0 {
		return Image{}, &Error{Op: "read", File: name, Err: ErrEmptyImage}
	}

	return DecodeImage(name, data)
}

// DecodeImage validates data and fills in the media type and dimensions.
func DecodeImage(name string, data []byte) (Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, &Error{Op: "read", File: name, Err: fmt.Errorf("%w: %v", ErrUnsupportedImage, err)}
	}

	mediaType, ok := mediaTypes[format]
	if !ok {
		return Image{}, &Error{Op: "read", File: name, Err: fmt.Errorf("%w: %s", ErrUnsupportedImage, format)}
	}

	return Image{
		Name:      name,
		MediaType: mediaType,
		Data:      data,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// Encode converts an image to its inline wire form.
func Encode(img Image) InlineImage {
	return InlineImage{
		MediaType: img.MediaType,
		Data:      base64.StdEncoding.EncodeToString(img.Data),
	}
}

// DataURL renders the image as an RFC 2397 data URL.
func (i InlineImage) DataURL() string {
	return "data:" + i.MediaType + ";base64," + i.Data
}

// Decode returns the original bytes.
func (i InlineImage) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(i.Data)
}

// ParseDataURL is the inverse of InlineImage.DataURL.
func ParseDataURL(s string) (InlineImage, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return InlineImage{}, fmt.Errorf("not a data URL")
	}
	mediaType, data, ok := strings.Cut(rest, ";base64,")
	if !ok || mediaType == "" {
		return InlineImage{}, fmt.Errorf("data URL is not base64 encoded")
	}
	return InlineImage{MediaType: mediaType, Data: data}, nil
}
