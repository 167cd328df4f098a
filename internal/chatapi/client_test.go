package chatapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"voicechat/internal/domain"
)

func TestStartSessionSuccess(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotMethod, gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/start" {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		gotMethod = r.Method
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		mu.Unlock()
		writeJSON(w, http.StatusOK, `{"message":"a new chat created","data":{"id":"u1","secret":"s1","text":"Hi","audio":"AAEC"}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/"}, discardLogger())
	greeting, err := client.StartSession(context.Background())
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotMethod != http.MethodGet {
		t.Fatalf("unexpected method: %s", gotMethod)
	}
	if gotAuth != "" {
		t.Fatalf("start session must be unauthenticated, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("expected request id header")
	}
	if greeting.Credentials != (domain.Credentials{ID: "u1", Secret: "s1"}) {
		t.Fatalf("unexpected credentials: %+v", greeting.Credentials)
	}
	if greeting.Text != "Hi" || greeting.Audio != "AAEC" {
		t.Fatalf("unexpected greeting: %+v", greeting)
	}
}

func TestStartSessionFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		kind   error
		detail string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"message":"failed to get initial text"}`, kind: domain.ErrNetwork, detail: "failed to get initial text"},
		{name: "bad gateway html", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, kind: domain.ErrNetwork, detail: "502"},
		{name: "not json", status: http.StatusOK, body: `hello`, kind: domain.ErrProtocol},
		{name: "no data", status: http.StatusOK, body: `{"message":"ok"}`, kind: domain.ErrProtocol},
		{name: "missing secret", status: http.StatusOK, body: `{"data":{"id":"u1","text":"Hi","audio":"AAEC"}}`, kind: domain.ErrProtocol, detail: "secret"},
		{name: "missing audio", status: http.StatusOK, body: `{"data":{"id":"u1","secret":"s1","text":"Hi"}}`, kind: domain.ErrProtocol, detail: "audio"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tc.status, tc.body)
			}))
			defer server.Close()

			_, err := NewClient(Config{BaseURL: server.URL}, discardLogger()).StartSession(context.Background())
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			if tc.detail != "" && !strings.Contains(err.Error(), tc.detail) {
				t.Fatalf("expected %q in %v", tc.detail, err)
			}
		})
	}
}

func TestStartSessionTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(Config{BaseURL: url}, discardLogger()).StartSession(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestSubmitAnswerUploadsMultipartWithBasicAuth(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotAuth, gotFilename, gotPartType string
	var gotAudio []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/answer" {
			http.NotFound(w, r)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, `{"message":"failed to read file"}`)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		gotFilename = header.Filename
		gotPartType = header.Header.Get("Content-Type")
		gotAudio = data
		mu.Unlock()

		writeJSON(w, http.StatusOK, `{"message":"success","data":{"prompt":{"text":"hello"},"answer":{"text":"hi there","audio":"AAEC"}}}`)
	}))
	defer server.Close()

	audio := domain.AudioBlob{Data: bytes.Repeat([]byte{7}, 150), MIMEType: "audio/wav"}
	exchange, err := NewClient(Config{BaseURL: server.URL}, discardLogger()).SubmitAnswer(context.Background(), audio, "dTE6czE=")
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotAuth != "Basic dTE6czE=" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if gotFilename != "audio.wav" || gotPartType != "audio/wav" {
		t.Fatalf("unexpected file part: name=%q type=%q", gotFilename, gotPartType)
	}
	if !bytes.Equal(gotAudio, audio.Data) {
		t.Fatalf("uploaded %d bytes, want %d", len(gotAudio), len(audio.Data))
	}
	if exchange != (domain.Exchange{PromptText: "hello", AnswerText: "hi there", AnswerAudio: "AAEC"}) {
		t.Fatalf("unexpected exchange: %+v", exchange)
	}
}

func TestSubmitAnswerIncompleteExchangeIsProtocolError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"prompt":{"text":"hello"},"answer":{"text":"hi there"}}}`)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}, discardLogger()).SubmitAnswer(
		context.Background(),
		domain.AudioBlob{Data: []byte("x")},
		"token",
	)
	if !errors.Is(err, domain.ErrProtocol) || !strings.Contains(err.Error(), "answer.audio") {
		t.Fatalf("expected protocol error naming answer.audio, got %v", err)
	}
}

func TestSubmitAnswerUnauthorizedIsNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}, discardLogger()).SubmitAnswer(
		context.Background(),
		domain.AudioBlob{Data: []byte("x")},
		"bad",
	)
	if !errors.Is(err, domain.ErrNetwork) || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected network error with status, got %v", err)
	}
}

func TestSubmitAnswerHonoursCallerCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(Config{BaseURL: server.URL}, discardLogger()).SubmitAnswer(ctx, domain.AudioBlob{Data: []byte("x")}, "t")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network error on cancellation, got %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
