package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"voicechat/internal/bootstrap"
	"voicechat/internal/config"
	"voicechat/internal/domain"
	"voicechat/internal/ports"
	"voicechat/internal/transcript"
	"voicechat/internal/usecase"
)

const (
	eventControl    = "voicechat:control"
	eventTranscript = "voicechat:transcript"
	eventError      = "voicechat:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context

	controller *usecase.SessionController
	transcript *transcript.View
	clipboard  ports.Clipboard
	cfg        config.Config
	logger     *slog.Logger
	bootErr    error
}

func NewApp() *App {
	return &App{clipboard: &wailsClipboard{}, logger: slog.Default()}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.logger.Error("startup failed", "err", err)
		a.emitError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.logger = services.Logger
	a.transcript = services.Transcript
	a.controller = services.Controller
	a.ControlChanged(a.controller.Control())
}

func (a *App) shutdown(_ context.Context) {
	if a.controller != nil {
		a.controller.Close()
	}
}

// PressControl presses the single conversation control and returns its
// presentation once the triggered step has resolved.
func (a *App) PressControl() domain.Control {
	if err := a.requireReady(); err != nil {
		return unavailableControl()
	}
	if err := a.controller.Press(a.ctx); err != nil && !errors.Is(err, usecase.ErrControlDisabled) {
		a.logger.Debug("control press resolved with error", "err", err)
	}
	return a.controller.Control()
}

// GetControl returns the current control presentation.
func (a *App) GetControl() domain.Control {
	if a.controller == nil {
		return unavailableControl()
	}
	return a.controller.Control()
}

// GetTranscript returns the conversation so far.
func (a *App) GetTranscript() []domain.TranscriptLine {
	if a.transcript == nil {
		return []domain.TranscriptLine{}
	}
	return a.transcript.Lines()
}

// CopyTranscript writes the conversation to the system clipboard.
func (a *App) CopyTranscript() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.clipboard.SetText(a.ctx, a.transcript.Text()); err != nil {
		a.logger.Warn("clipboard write failed", "err", err)
		a.SessionError(domain.ErrorCodeClipboard, err.Error())
		return err
	}
	return nil
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	storage := "file"
	if a.cfg.Session.CredentialsFile == config.MemoryStore {
		storage = "memory"
	}
	return map[string]string{
		"backend":          a.cfg.Backend.BaseURL,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
		"sampleRate":       strconv.Itoa(a.cfg.Audio.SampleRate),
		"credentials":      storage,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// ControlChanged emits the control presentation to the frontend.
func (a *App) ControlChanged(control domain.Control) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventControl, map[string]any{
		"state":      string(control.State),
		"affordance": string(control.Affordance),
		"enabled":    control.Enabled,
		"label":      controlLabel(control.Affordance),
	})
}

// TranscriptAppended emits a new transcript line.
func (a *App) TranscriptAppended(line domain.TranscriptLine) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]string{
		"speaker": string(line.Speaker),
		"text":    line.Text,
	})
}

// SessionError emits the error to the UI and blocks on a native dialog until
// the user dismisses it.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	a.emitError(code, detail)

	_, err := runtime.MessageDialog(a.ctx, runtime.MessageDialogOptions{
		Type:    runtime.ErrorDialog,
		Title:   "Voice Chat",
		Message: errorMessage(code, detail),
	})
	if err != nil {
		a.logger.Warn("error dialog failed", "err", err)
	}
}

func (a *App) emitError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func unavailableControl() domain.Control {
	control := domain.ControlFor(domain.ControlStateUninitiated)
	control.Enabled = false
	return control
}

func controlLabel(affordance domain.Affordance) string {
	switch affordance {
	case domain.AffordanceStart:
		return "Start Chat"
	case domain.AffordanceRecord:
		return "Record Answer"
	case domain.AffordanceStop:
		return "Save Answer"
	case domain.AffordanceBusy:
		return "Processing..."
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeNetwork:
		return "Could not reach the chat server, please try again."
	case domain.ErrorCodeProtocol:
		return "The chat server sent an unexpected reply, please try again."
	case domain.ErrorCodePermission:
		return "Error starting recording, please try again."
	case domain.ErrorCodeEncode:
		return "Nothing was recorded, please try again."
	case domain.ErrorCodeDecode:
		return "The reply audio could not be played."
	case domain.ErrorCodeNotAuthenticated:
		return "Start a chat before recording an answer."
	case domain.ErrorCodeAudioStream:
		return "Audio capture issue"
	case domain.ErrorCodeStorage:
		return "Could not save the chat session"
	case domain.ErrorCodeClipboard:
		return "Clipboard write failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

type wailsClipboard struct{}

func (c *wailsClipboard) SetText(ctx context.Context, text string) error {
	return runtime.ClipboardSetText(ctx, text)
}
