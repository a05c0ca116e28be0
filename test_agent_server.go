package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/whitelabel-ai/agents-ui/internal/audio"
)

// Test agent backend for local development. Implements the two invoke
// endpoints the chat client talks to and replies with canned responses.

type InvokeResponse struct {
	Response string `json:"response,omitempty"`
	Text     string `json:"text,omitempty"`
	Audio    string `json:"audio,omitempty"`
}

func invokeHandler(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agentId")
	input := r.URL.Query().Get("input")

	var body struct {
		Input string `json:"input"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	log.Printf("📨 TEXT INVOKE: agent=%s query_input=%q body_input=%q", agentID, input, body.Input)

	// Simulate processing time
	time.Sleep(200 * time.Millisecond)

	response := InvokeResponse{
		Response: fmt.Sprintf("Echo from %s: %s", agentID, body.Input),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	log.Printf("✅ RESPONSE SENT: %q", response.Response)
}

func invokeTestHandler(w http.ResponseWriter, r *http.Request) {
	agentID := r.PathValue("agentId")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Error getting audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	audioData, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Error reading audio file", http.StatusInternalServerError)
		return
	}

	log.Printf("🎤 AUDIO INVOKE: agent=%s filename=%s size=%d bytes", agentID, header.Filename, len(audioData))

	if err := audio.ValidateWAV(audioData); err != nil {
		log.Printf("⚠️  Uploaded clip is not valid WAV: %v", err)
	}

	// Simulate processing time
	time.Sleep(500 * time.Millisecond)

	response := InvokeResponse{
		Response: "I heard your voice message.",
		Text:     "I heard your voice message.",
		Audio:    base64.StdEncoding.EncodeToString(beepClip()),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	log.Printf("✅ RESPONSE SENT with %d bytes of reply audio", len(response.Audio))
	log.Println("---")
}

// beepClip generates a short 440Hz tone so the client has real reply audio
// to decode.
func beepClip() []byte {
	const sampleRate = 16000
	samples := make([]int16, sampleRate/2) // 500ms
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/sampleRate))
	}

	wav, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		log.Printf("Failed to encode beep clip: %v", err)
		return nil
	}
	return wav
}

func main() {
	http.HandleFunc("POST /agents/{agentId}/invoke", invokeHandler)
	http.HandleFunc("POST /agents/{agentId}/invokeTest", invokeTestHandler)

	port := ":8080"
	log.Printf("🚀 Test Agent Server starting on port %s", port)
	log.Printf("📡 Endpoints: http://localhost%s/agents/{agentId}/invoke and .../invokeTest", port)
	log.Println("💡 Point the client at: base_url http://localhost:8080")

	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
