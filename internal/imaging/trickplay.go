package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"os/exec"
)

// TrickplayOptions configures BIF generation per §4.G: snapshot interval,
// max width, JPEG quality, and whether to skip files that already exist.
type TrickplayOptions struct {
	SnapshotIntervalMs int
	MaxSnapshotWidth   int
	JpegQuality        int
	SkipExisting       bool
}

// DefaultTrickplayOptions returns the spec's stated defaults.
func DefaultTrickplayOptions() TrickplayOptions {
	return TrickplayOptions{SnapshotIntervalMs: 2000, MaxSnapshotWidth: 320, JpegQuality: 85, SkipExisting: true}
}

// TrickplayGenerator produces a BIF file for one MediaPart by invoking an
// external ffmpeg process to extract frames at SnapshotIntervalMs, the
// external transcoder binary this spec treats as an out-of-scope
// collaborator per §1.
type TrickplayGenerator struct {
	FFmpegPath string
	Opts       TrickplayOptions
}

func NewTrickplayGenerator(ffmpegPath string, opts TrickplayOptions) *TrickplayGenerator {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &TrickplayGenerator{FFmpegPath: ffmpegPath, Opts: opts}
}

// Generate writes a BIF file to bifPath for sourcePath, skipping work if
// SkipExisting and the target already exists.
func (g *TrickplayGenerator) Generate(ctx context.Context, sourcePath, bifPath string, durationMs int) error {
	if g.Opts.SkipExisting {
		if _, err := os.Stat(bifPath); err == nil {
			return nil
		}
	}

	frames, err := g.extractFrames(ctx, sourcePath, durationMs)
	if err != nil {
		return err
	}

	out, err := os.Create(bifPath)
	if err != nil {
		return fmt.Errorf("creating bif file: %w", err)
	}
	defer out.Close()

	return EncodeBIF(out, BIFVersion, uint32(g.Opts.SnapshotIntervalMs), frames)
}

func (g *TrickplayGenerator) extractFrames(ctx context.Context, sourcePath string, durationMs int) ([]BIFEntry, error) {
	interval := g.Opts.SnapshotIntervalMs
	if interval <= 0 {
		interval = 2000
	}
	width := g.Opts.MaxSnapshotWidth
	if width <= 0 {
		width = 320
	}

	var entries []BIFEntry
	for ts := 0; ts <= durationMs; ts += interval {
		frame, err := g.extractFrameAt(ctx, sourcePath, ts, width)
		if err != nil {
			return nil, err
		}
		entries = append(entries, BIFEntry{TimestampMs: uint32(ts), JPEG: frame})
	}
	return entries, nil
}

func (g *TrickplayGenerator) extractFrameAt(ctx context.Context, sourcePath string, timestampMs, width int) ([]byte, error) {
	seconds := fmt.Sprintf("%.3f", float64(timestampMs)/1000)
	cmd := exec.CommandContext(ctx, g.FFmpegPath,
		"-ss", seconds, "-i", sourcePath,
		"-frames:v", "1", "-vf", fmt.Sprintf("scale=%d:-1", width),
		"-q:v", "2", "-f", "image2pipe", "-vcodec", "mjpeg", "pipe:1")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("extracting trickplay frame at %dms: %w", timestampMs, err)
	}

	img, err := jpeg.Decode(bytes.NewReader(stdout.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decoding extracted frame: %w", err)
	}
	return encode(img, FormatJPEG, g.Opts.JpegQuality)
}
