package rowdoc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// PNGDataURIPrefix is the only data-URI scheme prefix stripped before decoding.
// Payloads with other prefixes are decoded as-is and fail as invalid base64.
const PNGDataURIPrefix = "data:image/png;base64,"

// ImageFailure classifies why a payload could not be decoded.
type ImageFailure string

// Image failure reasons.
const (
	ImageEmpty  ImageFailure = "empty"
	ImageBase64 ImageFailure = "base64"
	ImageFormat ImageFailure = "format"
	ImageSize   ImageFailure = "size"
	ImageEncode ImageFailure = "encode"
)

// MaxImagePixels caps the declared width x height of a payload. The header
// is checked before any pixel data is decoded.
const MaxImagePixels = 40_000_000

// ImageError reports a payload that cannot be rendered as a picture.
// It wraps ErrImageDecode so callers can match with errors.Is.
type ImageError struct {
	Reason ImageFailure
	Err    error
}

func (e *ImageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", ErrImageDecode, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %v", ErrImageDecode, e.Reason, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ImageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrImageDecode}
	}
	return []error{ErrImageDecode, e.Err}
}

// Image is a decoded picture ready for embedding.
// PNG always holds PNG-encoded bytes regardless of the source format.
type Image struct {
	PNG    []byte
	Width  int    // pixels
	Height int    // pixels
	Format string // source format as reported by image.Decode
}

// DecodeImage turns a bare or PNG data-URI base64 payload into an Image.
// Payloads declaring more than MaxImagePixels are rejected before their
// pixel data is decoded. It never panics; every failure is an *ImageError.
func DecodeImage(raw string) (*Image, error) {
	payload := strings.TrimSpace(raw)
	payload = strings.TrimPrefix(payload, PNGDataURIPrefix)
	if payload == "" {
		return nil, &ImageError{Reason: ImageEmpty}
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, &ImageError{Reason: ImageBase64, Err: err}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageError{Reason: ImageFormat, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, &ImageError{
			Reason: ImageSize,
			Err:    fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxImagePixels),
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageError{Reason: ImageFormat, Err: err}
	}

	// Re-encode non-PNG sources so every backend embeds a single format.
	pngBytes := data
	if format != "png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, &ImageError{Reason: ImageEncode, Err: err}
		}
		pngBytes = buf.Bytes()
	}

	b := img.Bounds()
	return &Image{
		PNG:    pngBytes,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
	}, nil
}

// decodeBase64 decodes standard base64, accepting input without padding.
// Line breaks are ignored by the decoder.
func decodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return data, nil
	}
	if !strings.HasSuffix(s, "=") {
		if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
			return raw, nil
		}
	}
	return nil, err
}

// DataURI returns the picture as a PNG data URI.
func (img *Image) DataURI() string {
	return PNGDataURIPrefix + base64.StdEncoding.EncodeToString(img.PNG)
}
