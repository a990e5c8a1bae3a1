package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	return client, srv
}

func candidateJSON(parts ...part) string {
	resp := generateContentResponse{
		Candidates: []candidate{{Content: content{Parts: parts}}},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestGenerateImagePicksFirstInlineImage(t *testing.T) {
	imageBytes := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	encoded := base64.StdEncoding.EncodeToString(imageBytes)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var req generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.GenerationConfig.ResponseModalities) != 2 {
			t.Errorf("modalities = %v", req.GenerationConfig.ResponseModalities)
		}

		// First candidate is narration only, the image arrives in the second.
		resp := generateContentResponse{
			Candidates: []candidate{
				{Content: content{Parts: []part{{Text: "aqui está a imagem"}}}},
				{Content: content{Parts: []part{
					{Text: "descrição"},
					{InlineData: &blob{Data: encoded, MimeType: "image/jpeg"}},
				}}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	got, err := client.GenerateImage(context.Background(), "gere", nil)
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(got) != string(imageBytes) {
		t.Errorf("decoded bytes mismatch: %v", got)
	}
}

func TestGenerateImageNoImageReturnsSynthesisError(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFinish string
	}{
		{"finish reason propagated", `{"candidates":[{"content":{"parts":[{"text":"recusado"}]},"finishReason":"SAFETY"}]}`, "SAFETY"},
		{"no candidates", `{"candidates":[]}`, "N/A"},
		{"text only without reason", candidateJSON(part{Text: "sem imagem"}), "N/A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GenerateImage(context.Background(), "gere", nil)
			var se *SynthesisError
			if !errors.As(err, &se) {
				t.Fatalf("want *SynthesisError, got %v", err)
			}
			if se.FinishReason != tt.wantFinish {
				t.Errorf("FinishReason = %q, want %q", se.FinishReason, tt.wantFinish)
			}
			if !strings.Contains(se.Error(), tt.wantFinish) {
				t.Errorf("error string %q does not carry the finish reason", se.Error())
			}
		})
	}
}

func TestGenerateImageHTTPErrorTruncated(t *testing.T) {
	longBody := strings.Repeat("x", 1000)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(longBody))
	})

	_, err := client.GenerateImage(context.Background(), "gere", nil)
	var se *SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("want *SynthesisError, got %v", err)
	}
	if se.FinishReason != "" {
		t.Errorf("transport failure must not set FinishReason, got %q", se.FinishReason)
	}
	if !strings.Contains(se.Status, "429") {
		t.Errorf("Status = %q", se.Status)
	}
	if len(se.Detail) != maxErrorPayload {
		t.Errorf("Detail length = %d, want %d", len(se.Detail), maxErrorPayload)
	}
}

func TestGenerateImageSendsImagesAfterInstruction(t *testing.T) {
	var gotParts []part
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotParts = req.Contents[0].Parts

		encoded := base64.StdEncoding.EncodeToString([]byte{1})
		_, _ = w.Write([]byte(candidateJSON(part{InlineData: &blob{Data: encoded, MimeType: "image/png"}})))
	})

	images := []ImageInput{
		{Data: []byte("person"), MimeType: "image/jpeg"},
		{Data: []byte("reference"), MimeType: "image/png"},
	}
	if _, err := client.GenerateImage(context.Background(), "instrução", images); err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}

	if len(gotParts) != 3 {
		t.Fatalf("len(parts) = %d, want 3", len(gotParts))
	}
	if gotParts[0].Text != "instrução" || gotParts[0].InlineData != nil {
		t.Errorf("first part must be the instruction: %+v", gotParts[0])
	}
	if gotParts[1].InlineData == nil || gotParts[1].InlineData.MimeType != "image/jpeg" {
		t.Errorf("second part must be the first image: %+v", gotParts[1])
	}
	if gotParts[2].InlineData == nil || gotParts[2].InlineData.MimeType != "image/png" {
		t.Errorf("third part must be the second image: %+v", gotParts[2])
	}
}

func TestAnalyzeImageReturnsFirstText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, defaultVisionModel) {
			t.Errorf("analysis must hit the vision model, path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(candidateJSON(part{Text: `{"atmosphere":"calma"}`})))
	})

	got, err := client.AnalyzeImage(context.Background(), "analise", ImageInput{Data: []byte{1}, MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}
	if got != `{"atmosphere":"calma"}` {
		t.Errorf("got %q", got)
	}
}

func TestGenerateTextTemperature(t *testing.T) {
	var gotTemp float64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotTemp = req.GenerationConfig.Temperature
		_, _ = w.Write([]byte(candidateJSON(part{Text: "[]"})))
	})

	if _, err := client.GenerateText(context.Background(), "escreva", 0.8); err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if gotTemp != 0.8 {
		t.Errorf("temperature = %v, want 0.8", gotTemp)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abcd" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abc", 0); got != "abc" {
		t.Errorf("zero max must not truncate, got %q", got)
	}
}
