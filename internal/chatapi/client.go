package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"voicechat/internal/domain"
	"voicechat/internal/ports"
)

const (
	startPath  = "/chat/start"
	answerPath = "/chat/answer"

	uploadField    = "file"
	uploadFilename = "audio.wav"
)

// Config controls the backend endpoint.
type Config struct {
	BaseURL string
	// HTTPClient defaults to a client without a timeout; cancellation is the
	// caller's responsibility.
	HTTPClient *http.Client
}

// Client implements ports.ChatBackend over the backend's HTTP/JSON API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		logger:  logger,
	}
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type chatPayload struct {
	Text  string `json:"text"`
	Audio string `json:"audio"`
}

type startPayload struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
	chatPayload
}

type answerPayload struct {
	Prompt chatPayload `json:"prompt"`
	Answer chatPayload `json:"answer"`
}

// StartSession opens a new conversation and returns the issued credentials
// together with the spoken greeting.
func (c *Client) StartSession(ctx context.Context) (domain.Greeting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+startPath, nil)
	if err != nil {
		return domain.Greeting{}, fmt.Errorf("%w: build request: %v", domain.ErrNetwork, err)
	}

	var payload startPayload
	if err := c.do(req, &payload); err != nil {
		return domain.Greeting{}, err
	}

	missing := missingFields(
		field{"id", payload.ID},
		field{"secret", payload.Secret},
		field{"text", payload.Text},
		field{"audio", payload.Audio},
	)
	if len(missing) > 0 {
		return domain.Greeting{}, fmt.Errorf("%w: start response missing %s", domain.ErrProtocol, strings.Join(missing, ", "))
	}

	return domain.Greeting{
		Credentials: domain.Credentials{ID: payload.ID, Secret: payload.Secret},
		Text:        payload.Text,
		Audio:       payload.Audio,
	}, nil
}

// SubmitAnswer uploads one recording and returns the transcribed prompt and
// the synthesized answer.
func (c *Client) SubmitAnswer(ctx context.Context, audio domain.AudioBlob, authToken string) (domain.Exchange, error) {
	body, contentType, err := multipartAudio(audio)
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("%w: build upload: %v", domain.ErrNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+answerPath, body)
	if err != nil {
		return domain.Exchange{}, fmt.Errorf("%w: build request: %v", domain.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Basic "+authToken)

	var payload answerPayload
	if err := c.do(req, &payload); err != nil {
		return domain.Exchange{}, err
	}

	missing := missingFields(
		field{"prompt.text", payload.Prompt.Text},
		field{"answer.text", payload.Answer.Text},
		field{"answer.audio", payload.Answer.Audio},
	)
	if len(missing) > 0 {
		return domain.Exchange{}, fmt.Errorf("%w: answer response missing %s", domain.ErrProtocol, strings.Join(missing, ", "))
	}

	return domain.Exchange{
		PromptText:  payload.Prompt.Text,
		AnswerText:  payload.Answer.Text,
		AnswerAudio: payload.Answer.Audio,
	}, nil
}

func (c *Client) do(req *http.Request, out any) error {
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	logger := c.logger.With("request_id", requestID, "method", req.Method, "path", req.URL.Path)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("backend request failed", "err", err)
		return fmt.Errorf("%w: %s %s: %v", domain.ErrNetwork, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("backend response unreadable", "status", resp.StatusCode, "err", err)
		return fmt.Errorf("%w: read response: %v", domain.ErrNetwork, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("backend returned error status", "status", resp.StatusCode, "message", env.Message)
		if decodeErr == nil && env.Message != "" {
			return fmt.Errorf("%w: %s returned %d: %s", domain.ErrNetwork, req.URL.Path, resp.StatusCode, env.Message)
		}
		return fmt.Errorf("%w: %s returned %d", domain.ErrNetwork, req.URL.Path, resp.StatusCode)
	}

	if decodeErr != nil {
		logger.Warn("backend response is not JSON", "status", resp.StatusCode, "err", decodeErr)
		return fmt.Errorf("%w: decode response: %v", domain.ErrProtocol, decodeErr)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: response has no data", domain.ErrProtocol)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", domain.ErrProtocol, err)
	}

	logger.Debug("backend request completed", "status", resp.StatusCode, "elapsed", time.Since(started))
	return nil
}

func multipartAudio(audio domain.AudioBlob) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	mimeType := audio.MIMEType
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, uploadFilename))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

type field struct {
	name  string
	value string
}

func missingFields(fields ...field) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

var _ ports.ChatBackend = (*Client)(nil)
