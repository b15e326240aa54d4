package content

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

const (
	defaultMaxSide  = 1024
	maxSourceBytes  = 10 << 20
	jpegQualityCopy = 85
)

// Photo is an image ready to inline into a vendor request.
type Photo struct {
	Data     []byte
	MIMEType string
}

// DataURL renders the photo as a data: URL.
func (p Photo) DataURL() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Preprocessor fetches product photos and shrinks oversized ones so vendor
// payloads stay small.
type Preprocessor struct {
	client  *http.Client
	maxSide int
}

// NewPreprocessor builds a preprocessor. maxSide <= 0 uses 1024px.
func NewPreprocessor(client *http.Client, maxSide int) *Preprocessor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if maxSide <= 0 {
		maxSide = defaultMaxSide
	}
	return &Preprocessor{client: client, maxSide: maxSide}
}

// Load returns the referenced photo, downloading URL-only references.
func (p *Preprocessor) Load(ctx context.Context, ref domain.ImageRef) (Photo, error) {
	data, mime := ref.Data, strings.TrimSpace(ref.MIMEType)
	if len(data) == 0 {
		var err error
		data, mime, err = p.fetch(ctx, ref.URL)
		if err != nil {
			return Photo{}, err
		}
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return p.normalize(Photo{Data: data, MIMEType: mime}), nil
}

// normalize downscales photos larger than maxSide and re-encodes them as
// JPEG. Formats the decoder does not know pass through untouched.
func (p *Preprocessor) normalize(photo Photo) Photo {
	img, err := imaging.Decode(bytes.NewReader(photo.Data), imaging.AutoOrientation(true))
	if err != nil {
		return photo
	}
	b := img.Bounds()
	if b.Dx() <= p.maxSide && b.Dy() <= p.maxSide {
		return photo
	}
	resized := imaging.Fit(img, p.maxSide, p.maxSide, imaging.Lanczos)
	encoded, err := encodeJPEG(resized)
	if err != nil {
		return photo
	}
	return Photo{Data: encoded, MIMEType: "image/jpeg"}
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQualityCopy)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *Preprocessor) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURL(rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("content: build image request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("content: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("content: download image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("content: read image: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, "", fmt.Errorf("content: image exceeds %d bytes", maxSourceBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func decodeDataURL(raw string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("content: unsupported data url")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("content: decode data url: %w", err)
	}
	return data, strings.TrimSuffix(meta, ";base64"), nil
}
