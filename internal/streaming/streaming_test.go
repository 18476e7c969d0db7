package streaming_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexamediaserver/internal/streaming"
)

func TestResolvePlanDirectPlayWhenEverythingFits(t *testing.T) {
	part := streaming.MediaPartInfo{Container: "mp4", VideoCodec: "h264", AudioCodec: "aac", BitrateKbps: 4000}
	profile := streaming.CapabilityProfile{
		Version:             1,
		SupportedContainers: []string{"mp4"},
		SupportedCodecs:     []string{"h264", "aac"},
		MaxBitrateKbps:      8000,
	}
	plan := streaming.ResolvePlan(part, profile, 1, streaming.AccelerationNone)
	assert.Equal(t, streaming.MethodDirect, plan.Method)
	assert.False(t, plan.CapabilityMismatch)
}

func TestResolvePlanRemuxWhenContainerUnsupported(t *testing.T) {
	part := streaming.MediaPartInfo{Container: "mkv", VideoCodec: "h264", AudioCodec: "aac", BitrateKbps: 4000}
	profile := streaming.CapabilityProfile{
		SupportedContainers: []string{"mp4"},
		SupportedCodecs:     []string{"h264", "aac"},
		MaxBitrateKbps:      8000,
	}
	plan := streaming.ResolvePlan(part, profile, 0, streaming.AccelerationNone)
	assert.Equal(t, streaming.MethodRemux, plan.Method)
}

func TestResolvePlanTranscodeWhenCodecUnsupported(t *testing.T) {
	part := streaming.MediaPartInfo{Container: "mkv", VideoCodec: "hevc", AudioCodec: "dts", BitrateKbps: 30000}
	profile := streaming.CapabilityProfile{
		SupportedContainers: []string{"mp4"},
		SupportedCodecs:     []string{"h264", "aac"},
		MaxBitrateKbps:      8000,
	}
	plan := streaming.ResolvePlan(part, profile, 0, streaming.AccelerationNone)
	assert.Equal(t, streaming.MethodTranscode, plan.Method)
}

func TestResolvePlanDetectsCapabilityMismatch(t *testing.T) {
	part := streaming.MediaPartInfo{Container: "mp4", VideoCodec: "h264", AudioCodec: "aac"}
	profile := streaming.CapabilityProfile{Version: 2, SupportedContainers: []string{"mp4"}, SupportedCodecs: []string{"h264", "aac"}}
	plan := streaming.ResolvePlan(part, profile, 1, streaming.AccelerationNone)
	assert.True(t, plan.CapabilityMismatch)
}

func TestManagerEnforcesTranscodeSlotLimit(t *testing.T) {
	m := streaming.NewManager(1, 60)
	plan := streaming.StreamPlan{Method: streaming.MethodTranscode}

	s1, err := m.StartSession(1, 1, plan)
	require.NoError(t, err)
	require.NotNil(t, s1)

	_, err = m.StartSession(1, 2, plan)
	assert.Error(t, err)

	m.EndSession(s1.ID)
	s3, err := m.StartSession(1, 3, plan)
	require.NoError(t, err)
	assert.NotNil(t, s3)
}

func TestManagerCacheSegmentDoesNotOverwrite(t *testing.T) {
	m := streaming.NewManager(2, 60)
	m.CacheSegment("session-1", 5, []byte("first"))
	m.CacheSegment("session-1", 5, []byte("second"))

	data, ok := m.Segment("session-1", 5)
	require.True(t, ok)
	assert.Equal(t, []byte("first"), data)
}

func TestDASHManifestIncludesSegmentTimeline(t *testing.T) {
	plan := streaming.StreamPlan{Container: "mp4", VideoCodec: "h264", SegmentDurationMs: 4000}
	manifest := streaming.DASHManifest("session-1", plan, 12000)
	assert.Contains(t, manifest, "<MPD")
	assert.Contains(t, manifest, `d="4000"`)
}

func TestHLSManifestEndsWithEndlist(t *testing.T) {
	plan := streaming.StreamPlan{SegmentDurationMs: 4000}
	manifest := streaming.HLSManifest("session-1", plan, 8000)
	assert.Contains(t, manifest, "#EXT-X-ENDLIST")
}
