package bootstrap

import (
	"log/slog"
	"os"

	"voicechat/internal/audio"
	"voicechat/internal/chatapi"
	"voicechat/internal/config"
	"voicechat/internal/credentials"
	"voicechat/internal/ports"
	"voicechat/internal/transcript"
	"voicechat/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Transcript *transcript.View
	Config     config.Config
	Logger     *slog.Logger
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logger := NewLogger(cfg.Log)
	slog.SetDefault(logger)

	view := transcript.NewView(eventSink)
	controller := usecase.NewSessionController(
		usecase.Dependencies{
			Backend:     chatapi.NewClient(chatapi.Config{BaseURL: cfg.Backend.BaseURL}, logger),
			Credentials: credentials.NewStore(credentialStorage(cfg.Session)),
			Codec:       audio.NewCodec(),
			Capture:     audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
			Player:      audio.NewFFPlayPlayer(cfg.Playback.PlayerCommand, logger),
			Transcript:  view,
			Events:      eventSink,
			Logger:      logger,
		},
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			ChunkSize: cfg.Session.ChunkSize,
		},
	)

	logger.Info("voice chat configured",
		"base_url", cfg.Backend.BaseURL,
		"input_format", cfg.Audio.InputFormat,
		"input_device", cfg.Audio.InputDevice,
		"credentials", cfg.Session.CredentialsFile,
	)

	return Services{Controller: controller, Transcript: view, Config: cfg, Logger: logger}, nil
}

// NewLogger builds the process logger. Logs go to stderr so they never mix
// with anything the webview prints.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func credentialStorage(cfg config.SessionConfig) credentials.KeyValue {
	if cfg.CredentialsFile == config.MemoryStore {
		return credentials.NewMemoryKeyValue()
	}
	return credentials.NewFileKeyValue(cfg.CredentialsFile)
}
