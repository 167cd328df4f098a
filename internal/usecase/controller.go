package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"voicechat/internal/domain"
	"voicechat/internal/ports"
)

// ErrControlDisabled is returned when the control is pressed while an
// operation is in flight. The press has no effect.
var ErrControlDisabled = errors.New("control is disabled")

// Config controls capture behavior.
type Config struct {
	Audio     ports.AudioConfig
	ChunkSize int
}

// Dependencies are the collaborators driven by the controller.
type Dependencies struct {
	Backend     ports.ChatBackend
	Credentials ports.CredentialStore
	Codec       ports.AudioCodec
	Capture     ports.AudioCapture
	Player      ports.Player
	Transcript  ports.TranscriptSink
	Events      ports.EventSink
	Logger      *slog.Logger
}

// SessionController owns the single control and sequences session start,
// recording, upload and reply playback.
type SessionController struct {
	backend    ports.ChatBackend
	creds      ports.CredentialStore
	codec      ports.AudioCodec
	capture    ports.AudioCapture
	player     ports.Player
	transcript ports.TranscriptSink
	events     ports.EventSink
	logger     *slog.Logger
	cfg        Config

	mu      sync.Mutex
	state   domain.ControlState
	current *recording
	reply   ports.PlaybackHandle
}

func NewSessionController(deps Dependencies, cfg Config) *SessionController {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &SessionController{
		backend:    deps.Backend,
		creds:      deps.Credentials,
		codec:      deps.Codec,
		capture:    deps.Capture,
		player:     deps.Player,
		transcript: deps.Transcript,
		events:     deps.Events,
		logger:     deps.Logger,
		cfg:        cfg,
		state:      domain.ControlStateUninitiated,
	}
}

// Press is the single control action. It returns once the step it triggered
// has resolved. Errors are already logged and surfaced when returned.
func (c *SessionController) Press(ctx context.Context) error {
	c.mu.Lock()
	if !domain.ControlFor(c.state).Enabled {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("control press ignored", "state", state)
		return ErrControlDisabled
	}

	// The disabled state is published before the lock is released so no
	// second press can start another operation.
	switch c.state {
	case domain.ControlStateUninitiated:
		c.setStateLocked(domain.ControlStateStartingSession)
		c.mu.Unlock()
		return c.startSession(ctx)
	case domain.ControlStateIdle:
		c.setStateLocked(domain.ControlStateRequestingCapture)
		c.mu.Unlock()
		return c.startRecording(ctx)
	case domain.ControlStateRecording:
		active := c.current
		c.current = nil
		c.setStateLocked(domain.ControlStateProcessing)
		c.mu.Unlock()
		return c.submitRecording(ctx, active)
	default:
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("unexpected control state %q", state)
	}
}

// Control returns the current presentation of the control.
func (c *SessionController) Control() domain.Control {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.ControlFor(c.state)
}

// State returns the current control state.
func (c *SessionController) State() domain.ControlState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close discards an in-progress recording and releases the last reply audio.
func (c *SessionController) Close() {
	c.mu.Lock()
	active := c.current
	c.current = nil
	reply := c.reply
	c.reply = nil
	if active != nil {
		c.setStateLocked(domain.ControlStateIdle)
	}
	c.mu.Unlock()

	if active != nil {
		_ = active.finish()
		active.drain()
		c.logger.Info("recording discarded on shutdown")
	}
	if reply != nil {
		reply.Release()
	}
}

func (c *SessionController) startSession(ctx context.Context) error {
	c.logger.Info("starting chat session")

	greeting, err := c.backend.StartSession(ctx)
	if err != nil {
		c.surface("start session failed", err)
		c.transition(domain.ControlStateUninitiated)
		return err
	}

	handle, err := c.codec.DecodeFromWire(greeting.Audio)
	if err != nil {
		c.surface("greeting audio unusable", err)
		c.transition(domain.ControlStateUninitiated)
		return err
	}

	if err := c.creds.Save(greeting.Credentials); err != nil {
		handle.Release()
		c.surfaceCode(domain.ErrorCodeStorage, "failed to persist session credentials", err)
		c.transition(domain.ControlStateUninitiated)
		return err
	}

	c.transcript.Append(domain.TranscriptLine{Text: greeting.Text, Speaker: domain.SpeakerAssistant})
	c.play(ctx, handle)
	c.transition(domain.ControlStateIdle)
	c.logger.Info("chat session started")
	return nil
}

func (c *SessionController) startRecording(ctx context.Context) error {
	session, err := c.capture.Start(ctx, c.cfg.Audio)
	if err != nil {
		if !errors.Is(err, domain.ErrPermission) {
			err = fmt.Errorf("%w: %v", domain.ErrPermission, err)
		}
		c.surface("microphone capture unavailable", err)
		c.transition(domain.ControlStateIdle)
		return err
	}

	active := newRecording(session)
	go active.collect(c.cfg.ChunkSize, c.onCaptureError)

	c.mu.Lock()
	c.current = active
	c.setStateLocked(domain.ControlStateRecording)
	c.mu.Unlock()

	c.logger.Info("recording started")
	return nil
}

func (c *SessionController) submitRecording(ctx context.Context, active *recording) error {
	if err := active.finish(); err != nil {
		c.logger.Warn("capture did not stop cleanly", "err", err)
	}
	fragments := active.drain()

	blob, err := c.codec.EncodeForUpload(fragments)
	if err != nil {
		c.surface("recording could not be encoded", err)
		c.transition(domain.ControlStateIdle)
		return err
	}

	token, err := c.creds.AuthToken()
	if err != nil {
		if !errors.Is(err, domain.ErrNotAuthenticated) {
			c.surfaceCode(domain.ErrorCodeStorage, "session credentials unreadable", err)
		} else {
			c.surface("answer submitted before session start", err)
		}
		c.transition(domain.ControlStateIdle)
		return err
	}

	c.logger.Info("submitting answer", "bytes", len(blob.Data), "fragments", len(fragments))
	exchange, err := c.backend.SubmitAnswer(ctx, blob, token)
	if err != nil {
		c.surface("submit answer failed", err)
		c.transition(domain.ControlStateIdle)
		return err
	}

	if err := c.presentExchange(ctx, exchange); err != nil {
		c.surface("answer audio unusable", err)
		c.transition(domain.ControlStateIdle)
		return err
	}

	c.transition(domain.ControlStateIdle)
	return nil
}

func (c *SessionController) onCaptureError(err error) {
	c.logger.Warn("audio capture error", "err", err)
	c.events.SessionError(domain.ErrorCodeAudioStream, err.Error())
}

func (c *SessionController) transition(state domain.ControlState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(state)
}

// setStateLocked is the only writer of state. The control presentation is
// emitted while the lock is held so observers see transitions in order.
func (c *SessionController) setStateLocked(state domain.ControlState) {
	previous := c.state
	c.state = state
	c.logger.Debug("control state changed", "from", previous, "to", state)
	c.events.ControlChanged(domain.ControlFor(state))
}

func (c *SessionController) surface(msg string, err error) {
	c.surfaceCode(domain.ErrorCodeOf(err), msg, err)
}

func (c *SessionController) surfaceCode(code domain.ErrorCode, msg string, err error) {
	c.logger.Error(msg, "code", code, "err", err)
	c.events.SessionError(code, err.Error())
}
