package imaging_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/imaging"
)

func TestNegotiateFormatPrefersAVIFThenWebPThenJPEG(t *testing.T) {
	assert.Equal(t, imaging.FormatAVIF, imaging.NegotiateFormat([]imaging.Format{imaging.FormatJPEG, imaging.FormatAVIF}))
	assert.Equal(t, imaging.FormatWebP, imaging.NegotiateFormat([]imaging.Format{imaging.FormatJPEG, imaging.FormatWebP}))
	assert.Equal(t, imaging.FormatJPEG, imaging.NegotiateFormat([]imaging.Format{imaging.FormatJPEG}))
	assert.Equal(t, imaging.FormatJPEG, imaging.NegotiateFormat(nil))
}

func TestBIFRoundTrip(t *testing.T) {
	entries := []imaging.BIFEntry{
		{TimestampMs: 0, JPEG: solidJPEG(t, color.RGBA{255, 0, 0, 255})},
		{TimestampMs: 2000, JPEG: solidJPEG(t, color.RGBA{0, 255, 0, 255})},
		{TimestampMs: 4000, JPEG: solidJPEG(t, color.RGBA{0, 0, 255, 255})},
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.EncodeBIF(&buf, imaging.BIFVersion, 2000, entries))

	version, interval, decoded, err := imaging.DecodeBIF(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(imaging.BIFVersion), version)
	assert.EqualValues(t, 2000, interval)
	require.Len(t, decoded, len(entries))
	for i, e := range entries {
		assert.Equal(t, e.TimestampMs, decoded[i].TimestampMs)
		assert.Equal(t, e.JPEG, decoded[i].JPEG)
	}
}

func solidJPEG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

type stubResolver struct{ data []byte }

func (s stubResolver) Resolve(sourceURI string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func TestCacheGetCollapsesAndCaches(t *testing.T) {
	dir := t.TempDir()
	src := solidJPEG(t, color.RGBA{10, 20, 30, 255})
	cache := imaging.NewCache(dir, stubResolver{data: src})

	req := imaging.Request{SourceURI: "thumb://1", Width: 2, Height: 2, Quality: 80, Format: imaging.FormatJPEG}
	first, err := cache.Get(req)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := cache.Get(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
