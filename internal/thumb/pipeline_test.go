package thumb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"thumb-forge-ai/internal/gemini"
)

// fakeGemini drives both models of the generateContent API behind one server.
// Requests are classified by path (image vs vision model) and by the presence
// of inline data (analysis vs text elements).
type fakeGemini struct {
	t *testing.T

	analysisBody  string
	analysisCode  int
	elementsBody  string
	elementsCode  int
	synthesisBody string
	synthesisCode int

	synthesisPrompt string
	synthesisImages []string
	analysisCalled  bool
	elementsCalled  bool
}

type fakeRequest struct {
	Contents []struct {
		Parts []struct {
			Text       string `json:"text"`
			InlineData *struct {
				Data     string `json:"data"`
				MimeType string `json:"mimeType"`
			} `json:"inlineData"`
		} `json:"parts"`
	} `json:"contents"`
}

func (f *fakeGemini) handler(w http.ResponseWriter, r *http.Request) {
	var req fakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Fatalf("decode request: %v", err)
	}

	hasImage := false
	for _, p := range req.Contents[0].Parts {
		if p.InlineData != nil {
			hasImage = true
		}
	}

	switch {
	case strings.Contains(r.URL.Path, "image"):
		f.synthesisPrompt = req.Contents[0].Parts[0].Text
		f.synthesisImages = nil
		for _, p := range req.Contents[0].Parts {
			if p.InlineData != nil {
				raw, _ := base64.StdEncoding.DecodeString(p.InlineData.Data)
				f.synthesisImages = append(f.synthesisImages, string(raw))
			}
		}
		writeFake(w, f.synthesisCode, f.synthesisBody)
	case hasImage:
		f.analysisCalled = true
		writeFake(w, f.analysisCode, f.analysisBody)
	default:
		f.elementsCalled = true
		writeFake(w, f.elementsCode, f.elementsBody)
	}
}

func writeFake(w http.ResponseWriter, code int, body string) {
	if code != 0 {
		w.WriteHeader(code)
	}
	_, _ = w.Write([]byte(body))
}

func textResponse(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":` + mustJSON(text) + `}]}}]}`
}

func imageResponse(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	return `{"candidates":[{"content":{"parts":[{"inlineData":{"data":"` + encoded + `","mimeType":"image/jpeg"}}]}}]}`
}

func mustJSON(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func newTestPipeline(t *testing.T, fake *fakeGemini) *Pipeline {
	t.Helper()
	fake.t = t
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)

	client := gemini.New(gemini.Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	return NewPipeline(client, nil, Timeouts{})
}

func TestPipelineGenerateFullRun(t *testing.T) {
	analysisJSON := `{"typography":{"headline_font":"Bebas Neue","line_count":2},"layout":{"text_zone":"right"},"colors":{"accent_1":"#FF0055"},"atmosphere":"tensa"}`
	fake := &fakeGemini{
		analysisBody:  textResponse("Análise pronta: " + analysisJSON),
		elementsBody:  textResponse(`[{"text":"GANHEI 100 MIL"},{"text":"EM 30 DIAS"}]`),
		synthesisBody: imageResponse([]byte("jpeg-bytes")),
	}
	p := newTestPipeline(t, fake)

	result, err := p.Generate(context.Background(), Request{
		Objective:  "dinheiro",
		Brief:      "faturei 100 mil",
		Similarity: 60,
		Person:     &gemini.ImageInput{Data: []byte("person"), MimeType: "image/jpeg"},
		Reference:  &gemini.ImageInput{Data: []byte("reference"), MimeType: "image/png"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if string(result.Image) != "jpeg-bytes" {
		t.Errorf("Image = %q", result.Image)
	}
	if result.Analysis.Typography.HeadlineFont != "Bebas Neue" {
		t.Errorf("analysis not propagated: %+v", result.Analysis)
	}
	if len(result.Elements) != 2 {
		t.Fatalf("len(Elements) = %d, want 2", len(result.Elements))
	}
	if result.Elements[0].Text != "GANHEI 100 MIL" || result.Elements[0].X != 700 {
		t.Errorf("first element must anchor to the right zone: %+v", result.Elements[0])
	}

	// The synthesis prompt reflects the analyzed design system, and the
	// inline images arrive person first.
	if !strings.Contains(fake.synthesisPrompt, "Bebas Neue") {
		t.Error("synthesis prompt does not carry the analyzed font")
	}
	if !strings.Contains(fake.synthesisPrompt, "SEM TEXTO NA IMAGEM") {
		t.Error("synthesis prompt missing the zero-text rule")
	}
	if len(fake.synthesisImages) != 2 || fake.synthesisImages[0] != "person" || fake.synthesisImages[1] != "reference" {
		t.Errorf("inline image order = %v", fake.synthesisImages)
	}
}

func TestPipelineGenerateAnalysisFailureDegrades(t *testing.T) {
	fake := &fakeGemini{
		analysisBody:  `{"error":"quota"}`,
		analysisCode:  http.StatusTooManyRequests,
		elementsBody:  textResponse(`[{"text":"APRENDA GO"}]`),
		synthesisBody: imageResponse([]byte("img")),
	}
	p := newTestPipeline(t, fake)

	result, err := p.Generate(context.Background(), Request{
		Objective: "tutorial",
		Brief:     "aprenda go",
		Reference: &gemini.ImageInput{Data: []byte("ref"), MimeType: "image/png"},
	})
	if err != nil {
		t.Fatalf("analysis failure must not abort generation: %v", err)
	}
	if !result.Analysis.Empty() {
		t.Errorf("failed analysis must degrade to the empty record: %+v", result.Analysis)
	}
	if !strings.Contains(fake.synthesisPrompt, "Impact") {
		t.Error("synthesis prompt must fall back to defaults")
	}
	if string(result.Image) != "img" {
		t.Errorf("Image = %q", result.Image)
	}
}

func TestPipelineGenerateTextFailureDegrades(t *testing.T) {
	fake := &fakeGemini{
		elementsBody:  `{"error":"boom"}`,
		elementsCode:  http.StatusInternalServerError,
		synthesisBody: imageResponse([]byte("img")),
	}
	p := newTestPipeline(t, fake)

	result, err := p.Generate(context.Background(), Request{
		Objective: "promessa",
		Brief:     "método em 7 dias",
		Person:    &gemini.ImageInput{Data: []byte("p"), MimeType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("overlay failure must not abort generation: %v", err)
	}
	if len(result.Elements) != 0 {
		t.Errorf("Elements = %v, want empty", result.Elements)
	}
	if string(result.Image) != "img" {
		t.Errorf("Image = %q", result.Image)
	}
}

func TestPipelineGenerateSynthesisFailureIsFatal(t *testing.T) {
	fake := &fakeGemini{
		elementsBody:  textResponse(`[{"text":"X"}]`),
		synthesisBody: `{"candidates":[{"content":{"parts":[{"text":"recusado"}]},"finishReason":"SAFETY"}]}`,
	}
	p := newTestPipeline(t, fake)

	_, err := p.Generate(context.Background(), Request{
		Objective: "polemica",
		Brief:     "a verdade",
	})

	var se *gemini.SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("want *SynthesisError, got %v", err)
	}
	if se.FinishReason != "SAFETY" {
		t.Errorf("FinishReason = %q", se.FinishReason)
	}
}

func TestPipelineGenerateSkipsAnalysisWithoutReference(t *testing.T) {
	fake := &fakeGemini{
		elementsBody:  textResponse(`[{"text":"X"}]`),
		synthesisBody: imageResponse([]byte("img")),
	}
	p := newTestPipeline(t, fake)

	if _, err := p.Generate(context.Background(), Request{Objective: "historia", Brief: "minha jornada"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if fake.analysisCalled {
		t.Error("analysis must be skipped when no reference image is supplied")
	}
	if !fake.elementsCalled {
		t.Error("element generation must still run")
	}
}
