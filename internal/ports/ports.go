package ports

import (
	"context"
	"io"

	"voicechat/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session. Reads yield raw recording fragments.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture opens the microphone. A failed Start means access was not granted.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// PlaybackHandle is an exclusively owned, releasable playable audio resource.
type PlaybackHandle interface {
	Audio() domain.AudioBlob
	// Bind attaches a stop hook run on Release. It reports false if the
	// handle was already released.
	Bind(stop func()) bool
	Release()
	Released() bool
}

// AudioCodec converts recordings to uploads and wire payloads to playable audio.
type AudioCodec interface {
	EncodeForUpload(fragments [][]byte) (domain.AudioBlob, error)
	DecodeFromWire(payload string) (PlaybackHandle, error)
}

// Player plays audio without blocking. Failures are logged, never returned.
type Player interface {
	Play(ctx context.Context, handle PlaybackHandle)
}

// ChatBackend is the remote conversational API.
type ChatBackend interface {
	StartSession(ctx context.Context) (domain.Greeting, error)
	SubmitAnswer(ctx context.Context, audio domain.AudioBlob, authToken string) (domain.Exchange, error)
}

// CredentialStore persists the session identity pair.
type CredentialStore interface {
	Save(creds domain.Credentials) error
	Load() (domain.Credentials, bool, error)
	AuthToken() (string, error)
}

// TranscriptSink receives transcript lines in arrival order.
type TranscriptSink interface {
	Append(line domain.TranscriptLine)
}

// Clipboard writes text into the system clipboard.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// EventSink emits backend state/events to the UI. ControlChanged is invoked
// while the controller holds its lock and must not call back into it.
type EventSink interface {
	ControlChanged(control domain.Control)
	TranscriptAppended(line domain.TranscriptLine)
	SessionError(code domain.ErrorCode, detail string)
}
