package invoke

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/draw"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder

	"github.com/abandonsearch/place-rater/internal/model"
	"github.com/abandonsearch/place-rater/pkg/gemini"
)

// SupportedImageTypes are sent to the model unchanged. Anything else is
// re-encoded as JPEG.
var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

const (
	jpegQuality     = 90
	maxImageBytes   = 20 << 20
	defaultFetchTTL = 20 * time.Second
)

var dataURLRe = regexp.MustCompile(`(?is)^data:([^;]+);base64,(.+)$`)

// ImageLoader turns the image references of a place into inline parts.
type ImageLoader struct {
	client    *http.Client
	userAgent string
	maxImages int
}

// NewImageLoader returns a loader that attaches at most maxImages images and
// fetches remote images with the given timeout.
func NewImageLoader(timeout time.Duration, maxImages int) *ImageLoader {
	if timeout <= 0 {
		timeout = defaultFetchTTL
	}
	return &ImageLoader{
		client:    &http.Client{Timeout: timeout},
		userAgent: "place-rater/1.0",
		maxImages: maxImages,
	}
}

// Load returns the usable images of place, in order, up to the limit. A
// failing image is logged and skipped.
func (l *ImageLoader) Load(ctx context.Context, place model.Place) []gemini.Image {
	refs := place.Images()
	if len(refs) > l.maxImages {
		refs = refs[:max(l.maxImages, 0)]
	}

	out := make([]gemini.Image, 0, len(refs))
	for _, ref := range refs {
		mime, data, err := l.Source(ctx, ref)
		if err == nil {
			mime, data, err = EnsureSupported(mime, data)
		}
		if err != nil {
			zap.L().Warn("invoke: skipping image", zap.Error(err))
			continue
		}
		zap.L().Debug("invoke: attached image",
			zap.String("mime", mime),
			zap.Int("size", len(data)),
		)
		out = append(out, gemini.Image{MIMEType: mime, Data: data})
	}
	return out
}

// Source resolves a data URL or an http(s) URL to its MIME type and bytes.
func (l *ImageLoader) Source(ctx context.Context, ref string) (string, []byte, error) {
	ref = strings.TrimSpace(ref)
	if m := dataURLRe.FindStringSubmatch(ref); m != nil {
		data, err := base64.StdEncoding.DecodeString(m[2])
		if err != nil {
			return "", nil, eris.Wrap(err, "invalid base64 in data URL")
		}
		return strings.ToLower(m[1]), data, nil
	}

	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return l.download(ctx, ref)
	}
	return "", nil, eris.New("unsupported image source format (must be data URL or http(s) URL)")
}

func (l *ImageLoader) download(ctx context.Context, rawURL string) (string, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", nil, eris.Wrapf(err, "failed to fetch image URL: %s", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, eris.Errorf("failed to fetch image URL: %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return "", nil, eris.Wrapf(err, "read image body from %s", rawURL)
	}

	mime := strings.ToLower(strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0]))
	if mime == "" {
		mime = "application/octet-stream"
	}
	return mime, data, nil
}

// EnsureSupported passes supported types through and re-encodes anything
// else that can be decoded as JPEG.
func EnsureSupported(mime string, data []byte) (string, []byte, error) {
	if SupportedImageTypes[mime] {
		return mime, data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, eris.Wrapf(err, "could not convert image (%s) to JPEG", mime)
	}

	// Flatten onto white; JPEG has no alpha.
	b := img.Bounds()
	canvas := image.NewRGBA(b)
	draw.Draw(canvas, b, image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, b, img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", nil, eris.Wrapf(err, "could not convert image (%s) to JPEG", mime)
	}
	return "image/jpeg", buf.Bytes(), nil
}
