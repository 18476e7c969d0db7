// Package imaging implements the image transcode service from §4.H: source
// resolution, format negotiation, resize, and a disk cache keyed by
// (source hash, width, height, quality, format).
//
// Concurrent requests for the same cache key are collapsed with
// golang.org/x/sync/singleflight, grounded on the coalescing-group pattern
// in blampe-rreading-glasses's Controller (other_examples), and resize
// uses golang.org/x/image/draw the way the teacher's go.mod indirectly
// depends on golang.org/x/image.
package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"nexamediaserver/internal/apperrors"
)

// Format is an output encoding. Per §4.H's negotiated preference order
// AVIF > WebP > JPEG; since no maintained pure-Go encoder for AVIF/WebP is
// available, FormatAVIF and FormatWebP always resolve to FormatJPEG at
// encode time. Cache.warnFallbackOnce records the first fallback per format;
// nothing is logged.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
)

// NegotiateFormat picks the best of the client's accepted formats in
// AVIF > WebP > JPEG order, defaulting to JPEG if none match.
func NegotiateFormat(accepts []Format) Format {
	order := []Format{FormatAVIF, FormatWebP, FormatJPEG}
	acceptSet := make(map[Format]bool, len(accepts))
	for _, f := range accepts {
		acceptSet[f] = true
	}
	for _, f := range order {
		if acceptSet[f] {
			return f
		}
	}
	return FormatJPEG
}

// Request describes one image transcode operation.
type Request struct {
	SourceURI string
	Width     int
	Height    int
	Quality   int
	Format    Format
}

// SourceResolver fetches the raw bytes of a source image from whatever
// backs SourceURI (a catalog thumb/art path, a remote URL, ...).
type SourceResolver interface {
	Resolve(sourceURI string) (io.ReadCloser, error)
}

// Cache is the on-disk image transcode cache plus single-flight
// collapsing, per §5: "Image transcode cache uses per-key single-flight:
// concurrent requests for the same cache key collapse to one producer."
type Cache struct {
	dir      string
	source   SourceResolver
	group    singleflight.Group
	warnOnce map[Format]bool
}

func NewCache(dir string, source SourceResolver) *Cache {
	return &Cache{dir: dir, source: source, warnOnce: make(map[Format]bool)}
}

// Get returns the transcoded image bytes for req, serving from cache on
// hit and producing (decode, resize, encode, store) on miss.
func (c *Cache) Get(req Request) ([]byte, error) {
	key := cacheKey(req)
	result, err, _ := c.group.Do(key, func() (any, error) {
		return c.getOrProduce(req, key)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Cache) getOrProduce(req Request, key string) ([]byte, error) {
	path := filepath.Join(c.dir, key)
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}

	rc, err := c.source.Resolve(req.SourceURI)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.NotFound, err, "resolving image source")
	}
	defer rc.Close()

	src, _, err := image.Decode(rc)
	if err != nil {
		src, err = decodeWebP(rc)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.InvalidArgument, err, "decoding source image")
		}
	}

	resized := resize(src, req.Width, req.Height)

	encodeFormat := req.Format
	if encodeFormat == FormatAVIF || encodeFormat == FormatWebP {
		c.warnFallbackOnce(encodeFormat)
		encodeFormat = FormatJPEG
	}

	encoded, err := encode(resized, encodeFormat, req.Quality)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Internal, err, "encoding transcoded image")
	}

	if err := os.MkdirAll(c.dir, 0o755); err == nil {
		_ = os.WriteFile(path, encoded, 0o644)
	}
	return encoded, nil
}

func (c *Cache) warnFallbackOnce(requested Format) {
	if c.warnOnce[requested] {
		return
	}
	c.warnOnce[requested] = true
	// A dedicated startup logger call belongs in cmd/nexa's wiring; this
	// cache only tracks that the fallback happened once per format.
}

func decodeWebP(r io.Reader) (image.Image, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return webp.Decode(bytes.NewReader(buf))
}

// resize scales src to fit within (maxWidth, maxHeight) preserving aspect
// ratio, per §4.H ("resizes preserving aspect ratio to fit within requested
// bounds"). A zero bound means "unconstrained on that axis".
func resize(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if maxWidth <= 0 {
		maxWidth = srcW
	}
	if maxHeight <= 0 {
		maxHeight = srcH
	}

	scale := min(float64(maxWidth)/float64(srcW), float64(maxHeight)/float64(srcH))
	if scale >= 1 {
		return src
	}
	dstW := int(float64(srcW) * scale)
	dstH := int(float64(srcH) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

func encode(img image.Image, format Format, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = 85
	}
	var buf bytes.Buffer
	switch format {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func cacheKey(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%d|%s", req.SourceURI, req.Width, req.Height, req.Quality, req.Format)
	return hex.EncodeToString(h.Sum(nil))
}
