package usecase

import (
	"context"

	"voicechat/internal/domain"
	"voicechat/internal/ports"
)

// presentExchange renders both sides of an exchange and plays the answer.
// The answer audio is decoded first so a bad payload leaves the transcript
// untouched.
func (c *SessionController) presentExchange(ctx context.Context, exchange domain.Exchange) error {
	handle, err := c.codec.DecodeFromWire(exchange.AnswerAudio)
	if err != nil {
		return err
	}

	c.transcript.Append(domain.TranscriptLine{Text: exchange.PromptText, Speaker: domain.SpeakerUser})
	c.transcript.Append(domain.TranscriptLine{Text: exchange.AnswerText, Speaker: domain.SpeakerAssistant})
	c.play(ctx, handle)
	return nil
}

// play releases the previously played handle before handing over the new one.
func (c *SessionController) play(ctx context.Context, handle ports.PlaybackHandle) {
	c.mu.Lock()
	previous := c.reply
	c.reply = handle
	c.mu.Unlock()

	if previous != nil {
		previous.Release()
	}
	c.player.Play(ctx, handle)
}
