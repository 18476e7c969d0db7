// Package streaming implements the streaming session manager from §4.G:
// capability matching, stream plan resolution, and DASH/HLS segment
// delivery bounded by a semaphore-limited transcode pool.
//
// Grounded on mantonx-viewra's PlaybackSession model (other_examples) for
// session shape (method, position, capability payload) generalized to this
// spec's direct/remux/transcode plan vocabulary.
package streaming

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"nexamediaserver/internal/apperrors"
)

// Method is the chosen delivery mode for a playback session, per §4.G.
type Method string

const (
	MethodDirect    Method = "direct"
	MethodRemux     Method = "remux"
	MethodTranscode Method = "transcode"
)

// HardwareAcceleration names the transcode acceleration kind in effect.
type HardwareAcceleration string

const (
	AccelerationNone HardwareAcceleration = "None"
	AccelerationVAAPI HardwareAcceleration = "VAAPI"
	AccelerationNVENC HardwareAcceleration = "NVENC"
	AccelerationQSV   HardwareAcceleration = "QSV"
)

// CapabilityProfile is the client's declared codec/container/bitrate
// abilities, per the Glossary.
type CapabilityProfile struct {
	Version             int
	SupportedContainers []string
	SupportedCodecs     []string
	MaxBitrateKbps      int
	SupportsHDR         bool
}

// MediaPartInfo is the subset of a catalog MediaPart the planner needs.
type MediaPartInfo struct {
	ID          uint
	Path        string
	Container   string
	VideoCodec  string
	AudioCodec  string
	Width       int
	Height      int
	BitrateKbps int
	DurationMs  int64
}

// StreamPlan is the server's resolved container/codec/delivery decision,
// per §4.G: "playback URL plus a stream plan JSON describing container,
// video/audio codec, segment duration, and whether seeking requires stream
// reload."
type StreamPlan struct {
	Method              Method
	Container           string
	VideoCodec          string
	AudioCodec          string
	SegmentDurationMs   int
	SeekRequiresReload  bool
	CapabilityMismatch  bool
	PlaybackURL         string
}

func supports(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// ResolvePlan implements step 3 of §4.G: choose direct play when the part's
// container/codecs and bitrate already fit the profile; remux when the
// codecs fit but the container doesn't; transcode otherwise.
func ResolvePlan(part MediaPartInfo, profile CapabilityProfile, serverCapabilityVersion int, acceleration HardwareAcceleration) StreamPlan {
	mismatch := profile.Version != serverCapabilityVersion

	codecsSupported := supports(profile.SupportedCodecs, part.VideoCodec) && supports(profile.SupportedCodecs, part.AudioCodec)
	containerSupported := supports(profile.SupportedContainers, part.Container)
	bitrateOK := profile.MaxBitrateKbps == 0 || part.BitrateKbps <= profile.MaxBitrateKbps

	switch {
	case codecsSupported && containerSupported && bitrateOK:
		return StreamPlan{
			Method:             MethodDirect,
			Container:          part.Container,
			VideoCodec:         part.VideoCodec,
			AudioCodec:         part.AudioCodec,
			SeekRequiresReload: false,
			CapabilityMismatch: mismatch,
		}
	case codecsSupported && bitrateOK:
		return StreamPlan{
			Method:             MethodRemux,
			Container:          "dash",
			VideoCodec:         part.VideoCodec,
			AudioCodec:         part.AudioCodec,
			SegmentDurationMs:  4000,
			SeekRequiresReload: false,
			CapabilityMismatch: mismatch,
		}
	default:
		return StreamPlan{
			Method:             MethodTranscode,
			Container:          "dash",
			VideoCodec:         "h264",
			AudioCodec:         "aac",
			SegmentDurationMs:  4000,
			SeekRequiresReload: acceleration == AccelerationNone,
			CapabilityMismatch: mismatch,
		}
	}
}

// Session is a running playback session, per the Glossary.
type Session struct {
	ID                string
	UserID            uint64
	MediaPartID       uint
	Plan              StreamPlan
	CreatedAt         time.Time
	LastSegmentAt     time.Time
	LastSegmentIndex  int
	cancel            func()
}

// Manager tracks active sessions, bounds concurrent transcodes with a
// semaphore sized MaxConcurrentTranscodes, and reaps sessions idle past
// IdleTimeoutSeconds, per §4.G and §5.
type Manager struct {
	mu               sync.Mutex
	sessions         map[string]*Session
	transcodeSlots   chan struct{}
	idleTimeout      time.Duration
	segmentCache     sync.Map // map[string][]byte keyed by "sessionID/index"
}

// DefaultIdleTimeoutSeconds and DefaultMaxConcurrentTranscodes are the §4.G
// stated defaults.
const (
	DefaultIdleTimeoutSeconds       = 60
	DefaultMaxConcurrentTranscodes  = 2
)

func NewManager(maxConcurrentTranscodes int, idleTimeoutSeconds int) *Manager {
	if maxConcurrentTranscodes <= 0 {
		maxConcurrentTranscodes = DefaultMaxConcurrentTranscodes
	}
	if idleTimeoutSeconds <= 0 {
		idleTimeoutSeconds = DefaultIdleTimeoutSeconds
	}
	return &Manager{
		sessions:       make(map[string]*Session),
		transcodeSlots: make(chan struct{}, maxConcurrentTranscodes),
		idleTimeout:    time.Duration(idleTimeoutSeconds) * time.Second,
	}
}

// StartSession registers a new session for plan. If plan requires
// transcode, a slot is acquired from the bounded pool; callers that cannot
// get a slot immediately should queue per §4.G ("new sessions queue").
func (m *Manager) StartSession(userID uint64, partID uint, plan StreamPlan) (*Session, error) {
	s := &Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		MediaPartID:   partID,
		Plan:          plan,
		CreatedAt:     time.Now(),
		LastSegmentAt: time.Now(),
	}

	if plan.Method == MethodTranscode {
		select {
		case m.transcodeSlots <- struct{}{}:
		default:
			return nil, apperrors.New(apperrors.ResourceExhausted, "no transcode slots available")
		}
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Touch records a segment request, advancing the idle-timeout clock and
// enforcing the monotonic-index guarantee from §5: a late lower index is
// allowed but never overwrites an already-cached higher segment.
func (m *Manager) Touch(sessionID string, segmentIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return apperrors.New(apperrors.NotFound, "unknown streaming session")
	}
	s.LastSegmentAt = time.Now()
	if segmentIndex > s.LastSegmentIndex {
		s.LastSegmentIndex = segmentIndex
	}
	return nil
}

// CacheSegment stores a produced segment, keyed by session+index, without
// overwriting a previously cached segment out of order (§5).
func (m *Manager) CacheSegment(sessionID string, index int, data []byte) {
	key := segmentKey(sessionID, index)
	m.segmentCache.LoadOrStore(key, data)
}

func (m *Manager) Segment(sessionID string, index int) ([]byte, bool) {
	v, ok := m.segmentCache.Load(segmentKey(sessionID, index))
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func segmentKey(sessionID string, index int) string {
	return sessionID + "/" + itoa(index)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// EndSession releases a held transcode slot (if any) and removes the
// session from tracking.
func (m *Manager) EndSession(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()
	if !ok {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.Plan.Method == MethodTranscode {
		select {
		case <-m.transcodeSlots:
		default:
		}
	}
}

// ReapIdle tears down sessions that haven't had a segment request within
// IdleTimeoutSeconds, per §4.G.
func (m *Manager) ReapIdle() []string {
	cutoff := time.Now().Add(-m.idleTimeout)
	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.LastSegmentAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.EndSession(id)
	}
	return expired
}
