package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"nexamediaserver/internal/catalog"
)

// ffprobeResult is the subset of ffprobe's JSON output this agent reads,
// grounded on the teacher's internal/ffmpeg FFprobe.Probe shape.
type ffprobeResult struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration   string            `json:"duration"`
	BitRate    string            `json:"bit_rate"`
	FormatName string            `json:"format_name"`
	Tags       map[string]string `json:"tags"`
}

type ffprobeStream struct {
	CodecType string            `json:"codec_type"`
	CodecName string            `json:"codec_name"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Tags      map[string]string `json:"tags"`
}

// TechnicalInfo is the container/codec/resolution/bitrate summary the
// analyzeItem mutation persists onto a MediaPart, distinct from the
// descriptive Hints an Agent contributes to a MetadataItem.
type TechnicalInfo struct {
	Container   string
	VideoCodec  string
	AudioCodec  string
	Width       int
	Height      int
	BitrateKbps int
	DurationMs  int64
}

// ProbeTechnical runs ffprobe on path and extracts the MediaPart-level
// technical fields analyzeItem refreshes, independent of the per-item
// metadata hints FFprobeAgent.Extract contributes.
func ProbeTechnical(ctx context.Context, ffprobePath, path string) (TechnicalInfo, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	probe, err := runProbe(ctx, ffprobePath, path)
	if err != nil {
		return TechnicalInfo{}, err
	}

	info := TechnicalInfo{Container: probe.Format.FormatName}
	if seconds, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.DurationMs = int64(seconds * 1000)
	}
	if bps, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.BitrateKbps = int(bps / 1000)
	}
	for _, s := range probe.Streams {
		if s.CodecType == "video" && info.VideoCodec == "" {
			info.VideoCodec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
		}
		if s.CodecType == "audio" && info.AudioCodec == "" {
			info.AudioCodec = s.CodecName
		}
	}
	return info, nil
}

func runProbe(ctx context.Context, ffprobePath, path string) (ffprobeResult, error) {
	cmd := exec.CommandContext(ctx, ffprobePath, "-v", "quiet", "-print_format", "json",
		"-show_format", "-show_streams", path)
	output, err := cmd.Output()
	if err != nil {
		return ffprobeResult{}, fmt.Errorf("ffprobe failed on %s: %w", path, err)
	}
	var probe ffprobeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return ffprobeResult{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}
	return probe, nil
}

// FFprobeAgent extracts embedded container/stream tags (title, artist,
// genre, composer) via ffprobe, the Embedded category of §4.B. The album
// tag is not read.
type FFprobeAgent struct {
	BinaryPath string
}

func NewFFprobeAgent(binaryPath string) *FFprobeAgent {
	if binaryPath == "" {
		binaryPath = "ffprobe"
	}
	return &FFprobeAgent{BinaryPath: binaryPath}
}

func (a *FFprobeAgent) Name() string                   { return "ffprobe-embedded" }
func (a *FFprobeAgent) Category() catalog.AgentCategory { return catalog.CategoryEmbedded }
func (a *FFprobeAgent) DefaultOrder() int               { return 0 }

func (a *FFprobeAgent) SupportsLibraryType(t catalog.LibraryType) bool {
	switch t {
	case catalog.LibraryMovies, catalog.LibraryTVShows, catalog.LibraryMusic,
		catalog.LibraryMusicVideos, catalog.LibraryHomeVideos, catalog.LibraryAudiobooks, catalog.LibraryPodcasts:
		return true
	default:
		return false
	}
}

func (a *FFprobeAgent) Extract(ctx context.Context, unit ExtractionUnit) (Hints, error) {
	probe, err := runProbe(ctx, a.BinaryPath, unit.PrimaryPath)
	if err != nil {
		return Hints{}, err
	}

	hints := Hints{Extra: map[string]any{}}
	tags := probe.Format.Tags
	if title, ok := tags["title"]; ok && title != "" {
		hints.Title = &title
	}
	if composer, ok := tags["composer"]; ok && composer != "" {
		hints.Composer = &composer
	}
	if genre, ok := tags["genre"]; ok && genre != "" {
		hints.Genres = []string{genre}
	}
	if artist, ok := tags["artist"]; ok && artist != "" {
		hints.Performers = []PerformerHint{{Name: artist, Role: "Artist", Relation: catalog.RelationPerformer}}
	}

	for _, s := range probe.Streams {
		if s.CodecType == "video" {
			hints.Extra["videoCodec"] = s.CodecName
			hints.Extra["width"] = s.Width
			hints.Extra["height"] = s.Height
		}
		if s.CodecType == "audio" {
			hints.Extra["audioCodec"] = s.CodecName
		}
	}
	return hints, nil
}
