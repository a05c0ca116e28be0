package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL: baseURL,
		AgentID: "agent-1",
		Timeout: 5 * time.Second,
	}, testLogger())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func TestSendTextRequestShape(t *testing.T) {
	var gotPath, gotQuery, gotContentType string
	var gotBody map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("input")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)

		json.NewEncoder(w).Encode(map[string]string{"response": "hello back"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	reply, err := client.SendText(context.Background(), "hi there?")
	if err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	if gotPath != "/agents/agent-1/invoke" {
		t.Errorf("Expected path /agents/agent-1/invoke, got %s", gotPath)
	}
	if gotQuery != "hi there?" {
		t.Errorf("Expected input query to round-trip, got %q", gotQuery)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %s", gotContentType)
	}
	if gotBody["input"] != "hi there?" {
		t.Errorf("Expected body input field, got %v", gotBody)
	}
	if reply.Text != "hello back" {
		t.Errorf("Expected reply text %q, got %q", "hello back", reply.Text)
	}
}

func TestSendAudioRequestShape(t *testing.T) {
	wav := []byte("RIFFfakewav")
	var gotPath string
	var gotFile []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("Expected multipart field %q: %v", "file", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFile, _ = io.ReadAll(file)

		if !strings.HasSuffix(header.Filename, ".wav") {
			t.Errorf("Expected .wav filename, got %s", header.Filename)
		}

		json.NewEncoder(w).Encode(map[string]string{"text": "transcribed reply"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	reply, err := client.SendAudio(context.Background(), wav)
	if err != nil {
		t.Fatalf("SendAudio failed: %v", err)
	}

	if gotPath != "/agents/agent-1/invokeTest" {
		t.Errorf("Expected path /agents/agent-1/invokeTest, got %s", gotPath)
	}
	if string(gotFile) != string(wav) {
		t.Error("Uploaded file must match the clip bytes")
	}
	if reply.Text != "transcribed reply" {
		t.Errorf("Expected reply text %q, got %q", "transcribed reply", reply.Text)
	}
}

func TestReplyTextPreference(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"response wins over text", map[string]string{"response": "a", "text": "b"}, "a"},
		{"text when no response", map[string]string{"text": "b"}, "b"},
		{"fallback when empty", map[string]string{}, "No response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			reply, err := client.SendText(context.Background(), "x")
			if err != nil {
				t.Fatalf("SendText failed: %v", err)
			}
			if reply.Text != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, reply.Text)
			}
		})
	}
}

func TestReplyAudioDecoded(t *testing.T) {
	wav := []byte("RIFFreplyaudio")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"text":  "spoken",
			"audio": base64.StdEncoding.EncodeToString(wav),
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	reply, err := client.SendAudio(context.Background(), []byte("RIFFx"))
	if err != nil {
		t.Fatalf("SendAudio failed: %v", err)
	}

	if string(reply.Audio) != string(wav) {
		t.Error("Expected reply audio to be base64-decoded")
	}
}

func TestMalformedAudioDegradesToText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"text":  "still readable",
			"audio": "%%%not-base64%%%",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	reply, err := client.SendText(context.Background(), "x")
	if err != nil {
		t.Fatalf("Malformed audio must not fail the reply: %v", err)
	}

	if reply.Text != "still readable" {
		t.Errorf("Expected text to survive, got %q", reply.Text)
	}
	if reply.Audio != nil {
		t.Error("Undecodable audio must be dropped")
	}
	if client.GetStats().AudioDropped != 1 {
		t.Error("Expected dropped audio to be counted")
	}
}

func TestBackendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "agent exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SendText(context.Background(), "x")
	if err == nil {
		t.Fatal("Expected error for HTTP 500")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected RequestError, got %T", err)
	}
	if reqErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", reqErr.StatusCode)
	}

	stats := client.GetStats()
	if stats.FailedRequests != 1 {
		t.Errorf("Expected 1 failed request, got %d", stats.FailedRequests)
	}
}

func TestConnectionFailureIsRequestError(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	_, err := client.SendText(context.Background(), "x")
	if err == nil {
		t.Fatal("Expected error when the backend is unreachable")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected RequestError, got %T", err)
	}
	if reqErr.StatusCode != 0 {
		t.Errorf("Expected zero status when no response was received, got %d", reqErr.StatusCode)
	}
}

func TestMalformedResponseIsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>not json</html>")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.SendText(context.Background(), "x")
	if err == nil {
		t.Fatal("Expected error for an unparseable response")
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected RequestError, got %T", err)
	}
	if reqErr.StatusCode != http.StatusOK {
		t.Errorf("Expected the response status to be kept, got %d", reqErr.StatusCode)
	}
}

func TestSendAudioEmptyClip(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")

	if _, err := client.SendAudio(context.Background(), nil); err == nil {
		t.Error("Expected error for empty clip")
	}
}

func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can detect the client disconnect and
		// cancel the request context; otherwise Close hangs on this handler.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.SendText(ctx, "x"); err == nil {
		t.Error("Expected error when context is cancelled")
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{AgentID: "a"}, testLogger()); err == nil {
		t.Error("Expected error for empty base URL")
	}
	if _, err := NewClient(Config{BaseURL: "http://x"}, testLogger()); err == nil {
		t.Error("Expected error for empty agent ID")
	}
}
