package thumb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"thumb-forge-ai/internal/gemini"
)

// maxTextElements caps the overlay sequence length.
const maxTextElements = 3

// TextElement is one positioned, styled overlay entry to be composited over
// the generated image. Coordinates live in the fixed canvas space.
type TextElement struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	FontSize    float64 `json:"fontSize"`
	FontFamily  string  `json:"fontFamily"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	FontWeight  string  `json:"fontWeight"`
}

// overlayDefaults is the style/position baseline computed from the design
// system before the text model is asked anything. Every element field missing
// from the model response falls back to these.
type overlayDefaults struct {
	BaseX       float64
	LineCount   int
	Font        string
	Fill        string
	Stroke      string
	StrokeWidth float64
	TextCase    string
	TextZone    string
}

func overlayDefaultsFor(a DesignSystemAnalysis) overlayDefaults {
	t := a.Typography
	zone := orDefault(a.Layout.TextZone, defaultTextZone)

	// Horizontal anchor follows the reference's text zone: right third,
	// center third, or left margin.
	baseX := 60.0
	switch {
	case strings.Contains(zone, "right"):
		baseX = 700
	case strings.Contains(zone, "center"):
		baseX = 300
	}

	strokeWidth := 0.0
	if t.HasStroke {
		strokeWidth = 4
	}

	return overlayDefaults{
		BaseX:       baseX,
		LineCount:   clampLineCount(t.LineCount),
		Font:        orDefault(t.HeadlineFont, "Anton"),
		Fill:        firstOrDefault(t.TextColors, defaultTextColor),
		Stroke:      firstOrDefault(t.StrokeColors, defaultStrokeColor),
		StrokeWidth: strokeWidth,
		TextCase:    orDefault(t.TextCase, defaultTextCase),
		TextZone:    zone,
	}
}

func elementsPrompt(objective, brief string, d overlayDefaults) string {
	caseHint := "em capitalização mista"
	if strings.Contains(strings.ToUpper(d.TextCase), "UPPER") {
		caseHint = "EM CAIXA ALTA (UPPERCASE)"
	}

	brief = strings.TrimSpace(brief)
	if brief == "" {
		brief = "(sem instrução adicional)"
	}

	var b strings.Builder
	b.Grow(1024)

	b.WriteString("Você é especialista em copywriting viral para thumbnails de YouTube.\n\n")
	b.WriteString("Objetivo da thumbnail: " + Guidance(objective) + "\n")
	b.WriteString("Instrução do criador: " + brief + "\n")
	b.WriteString(fmt.Sprintf("Número de linhas de texto: %d\n", d.LineCount))
	b.WriteString("Estilo: textos " + caseHint + ", curtos, chocantes, que geram clique\n\n")
	b.WriteString(fmt.Sprintf("Crie exatamente %d texto(s) impactante(s) para esta thumbnail.\n", d.LineCount))
	b.WriteString(fmt.Sprintf("Canvas: %dx%d pixels. Zona de texto: %s (x base: %.0fpx).\n\n", CanvasWidth, CanvasHeight, d.TextZone, d.BaseX))
	b.WriteString("LINHA 1 (título principal): maior, fonte ~120-140px, y~80\n")
	b.WriteString("LINHA 2 (subtítulo, se houver): menor, fonte ~75-90px, y~260\n")
	b.WriteString("LINHA 3 (complemento, se houver): menor ainda, fonte ~60px, y~440\n\n")
	b.WriteString("Retorne APENAS JSON válido, sem markdown:\n")
	b.WriteString(fmt.Sprintf(
		`[{"id":"t0","text":"TEXTO","x":%.0f,"y":80,"fontSize":130,"fontFamily":"%s","fill":"%s","stroke":"%s","strokeWidth":%.0f,"fontWeight":"bold"}]`,
		d.BaseX, d.Font, d.Fill, d.Stroke, d.StrokeWidth,
	))
	b.WriteString("\n\nMáximo 4 palavras por linha. Sem pontuação desnecessária.")

	return b.String()
}

// parseElements recovers the overlay sequence from free-form model output.
// The array span is matched greedily; each entry is coerced field by field so
// one malformed value costs only that field, never the whole sequence.
func parseElements(raw string, d overlayDefaults) []TextElement {
	span, ok := jsonArraySpan(raw)
	if !ok {
		return nil
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(span), &items); err != nil {
		return nil
	}
	if len(items) > maxTextElements {
		items = items[:maxTextElements]
	}

	out := make([]TextElement, 0, len(items))
	for i, item := range items {
		out = append(out, coerceElement(i, item, d))
	}
	return out
}

func coerceElement(i int, raw map[string]any, d overlayDefaults) TextElement {
	return TextElement{
		ID:          coerceString(raw["id"], fmt.Sprintf("t%d", i)),
		Text:        coerceString(raw["text"], ""),
		X:           coerceNumber(raw["x"], d.BaseX),
		Y:           coerceNumber(raw["y"], float64(80+i*180)),
		FontSize:    coerceNumber(raw["fontSize"], cascadeFontSize(i)),
		FontFamily:  coerceString(raw["fontFamily"], d.Font),
		Fill:        coerceString(raw["fill"], d.Fill),
		Stroke:      coerceString(raw["stroke"], d.Stroke),
		StrokeWidth: coerceNumber(raw["strokeWidth"], d.StrokeWidth),
		FontWeight:  coerceString(raw["fontWeight"], "bold"),
	}
}

// cascadeFontSize sizes lines by index: headline, subtitle, complement.
func cascadeFontSize(i int) float64 {
	switch i {
	case 0:
		return 130
	case 1:
		return 90
	default:
		return 60
	}
}

func coerceString(v any, fallback string) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func coerceNumber(v any, fallback float64) float64 {
	f, ok := v.(float64)
	if !ok {
		return fallback
	}
	return f
}

func firstOrDefault(list []string, fallback string) string {
	for _, v := range list {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return fallback
}

// ElementGenerator produces the overlay text sequence. It is deliberately fed
// only the brief, objective, and design system, never the rendered image:
// the synthesized background carries zero text, so overlay content must not
// be derived from it.
type ElementGenerator struct {
	client *gemini.Client
	logger *slog.Logger
}

func NewElementGenerator(client *gemini.Client, logger *slog.Logger) *ElementGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ElementGenerator{client: client, logger: logger}
}

// Generate returns up to three overlay elements, or an empty sequence on any
// failure. A thumbnail without overlay text beats an aborted request.
func (g *ElementGenerator) Generate(ctx context.Context, objective, brief string, analysis DesignSystemAnalysis) []TextElement {
	d := overlayDefaultsFor(analysis)

	raw, err := g.client.GenerateText(ctx, elementsPrompt(objective, brief, d), 0.8)
	if err != nil {
		g.logger.Warn("text element generation failed", "err", err)
		return nil
	}

	elements := parseElements(raw, d)
	if elements == nil {
		g.logger.Warn("text element response had no parseable array")
	}
	return elements
}
