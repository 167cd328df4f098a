package audio

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/wailsapp/mimetype"

	"voicechat/internal/domain"
	"voicechat/internal/ports"
)

// UploadMIMEType tags every recording sent to the backend.
const UploadMIMEType = "audio/wav"

// Codec implements ports.AudioCodec for the single exchange format of the API.
type Codec struct{}

func NewCodec() Codec {
	return Codec{}
}

// EncodeForUpload concatenates fragments in arrival order into one upload blob.
func (Codec) EncodeForUpload(fragments [][]byte) (domain.AudioBlob, error) {
	size := lo.SumBy(fragments, func(fragment []byte) int { return len(fragment) })
	if size == 0 {
		return domain.AudioBlob{}, fmt.Errorf("%w: no audio captured", domain.ErrEncode)
	}

	data := make([]byte, 0, size)
	for _, fragment := range fragments {
		data = append(data, fragment...)
	}
	return domain.AudioBlob{Data: data, MIMEType: UploadMIMEType}, nil
}

// DecodeFromWire turns a base64 payload into a playable handle. It performs no I/O.
func (Codec) DecodeFromWire(payload string) (ports.PlaybackHandle, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrDecode)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrDecode)
	}

	return NewHandle(domain.AudioBlob{Data: data, MIMEType: sniffAudioType(data)}), nil
}

func sniffAudioType(data []byte) string {
	detected := mimetype.Detect(data)
	if detected != nil && strings.HasPrefix(detected.String(), "audio/") {
		return detected.String()
	}
	return UploadMIMEType
}

// Handle is a releasable playback resource.
type Handle struct {
	mu       sync.Mutex
	audio    domain.AudioBlob
	stops    []func()
	released bool
}

func NewHandle(audio domain.AudioBlob) *Handle {
	return &Handle{audio: audio}
}

func (h *Handle) Audio() domain.AudioBlob {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.audio
}

func (h *Handle) Bind(stop func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return false
	}
	h.stops = append(h.stops, stop)
	return true
}

// Release stops bound playback and drops the audio bytes. Safe to call twice.
func (h *Handle) Release() {
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return
	}
	h.released = true
	stops := h.stops
	h.stops = nil
	h.audio = domain.AudioBlob{}
	h.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
}

func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

var _ ports.AudioCodec = Codec{}
var _ ports.PlaybackHandle = (*Handle)(nil)
