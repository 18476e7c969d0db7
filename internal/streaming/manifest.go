package streaming

import (
	"fmt"
	"strings"
)

// DASHManifest renders a minimal MPD document describing plan's segments
// for a session, per §4.G ("DASH manifest per session").
func DASHManifest(sessionID string, plan StreamPlan, durationMs int64) string {
	segmentDuration := plan.SegmentDurationMs
	if segmentDuration <= 0 {
		segmentDuration = 4000
	}
	segmentCount := int(durationMs)/segmentDuration + 1

	var segments strings.Builder
	for i := 0; i < segmentCount; i++ {
		fmt.Fprintf(&segments, `    <S t="%d" d="%d"/>`+"\n", i*segmentDuration, segmentDuration)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT%.3fS">
  <Period>
    <AdaptationSet mimeType="video/%s" codecs="%s">
      <SegmentTemplate media="seg-$Number$.m4s" initialization="init.m4s" timescale="1000">
        <SegmentTimeline>
%s        </SegmentTimeline>
      </SegmentTemplate>
    </AdaptationSet>
  </Period>
</MPD>
`, float64(durationMs)/1000, plan.Container, plan.VideoCodec, segments.String())
}

// HLSManifest renders a minimal HLS media playlist for a session, the HLS
// equivalent named in §4.G.
func HLSManifest(sessionID string, plan StreamPlan, durationMs int64) string {
	segmentDuration := plan.SegmentDurationMs
	if segmentDuration <= 0 {
		segmentDuration = 4000
	}
	segmentSeconds := float64(segmentDuration) / 1000
	segmentCount := int(durationMs)/segmentDuration + 1

	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:7\n")
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", segmentDuration/1000+1)
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	for i := 0; i < segmentCount; i++ {
		fmt.Fprintf(&b, "#EXTINF:%.3f,\nseg-%d.m4s\n", segmentSeconds, i)
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}
