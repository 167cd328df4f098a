package audio

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"

	"voicechat/internal/ports"
)

// FFPlayPlayer plays handles by piping their bytes into ffplay.
type FFPlayPlayer struct {
	command string
	logger  *slog.Logger
}

func NewFFPlayPlayer(command string, logger *slog.Logger) *FFPlayPlayer {
	if command == "" {
		command = "ffplay"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFPlayPlayer{command: command, logger: logger}
}

// Play starts playback in the background. The handle is released once
// playback ends, fails, or the handle is released by its owner.
func (p *FFPlayPlayer) Play(ctx context.Context, handle ports.PlaybackHandle) {
	if handle == nil {
		return
	}

	playCtx, cancel := context.WithCancel(ctx)
	if !handle.Bind(cancel) {
		cancel()
		p.logger.Warn("playback skipped: audio already released")
		return
	}

	blob := handle.Audio()
	go func() {
		defer handle.Release()
		defer cancel()

		cmd := exec.CommandContext(playCtx, p.command, "-nodisp", "-autoexit", "-loglevel", "error", "-i", "-")
		cmd.Stdin = bytes.NewReader(blob.Data)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if playCtx.Err() != nil {
				p.logger.Debug("playback stopped", "reason", playCtx.Err())
				return
			}
			p.logger.Warn("audio playback failed",
				"err", err,
				"mime", blob.MIMEType,
				"bytes", len(blob.Data),
				"stderr", trimOutput(stderr.String()),
			)
			return
		}
		p.logger.Debug("playback finished", "mime", blob.MIMEType, "bytes", len(blob.Data))
	}()
}

var _ ports.Player = (*FFPlayPlayer)(nil)
