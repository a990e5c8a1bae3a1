package thumb

import (
	"context"
	"log/slog"

	"thumb-forge-ai/internal/gemini"
)

const analysisInstruction = `Você é um especialista em design de thumbnails virais para YouTube.

Analise esta thumbnail de referência e extraia o sistema visual completo.
Retorne APENAS JSON válido, sem markdown, sem explicações adicionais.

{
  "typography": {
    "headline_font": "família da fonte principal (ex: Impact, Arial Black, Bebas Neue)",
    "headline_weight": "bold ou normal",
    "text_case": "UPPERCASE ou Mixed Case",
    "has_stroke": true ou false,
    "stroke_thickness": "thin/medium/thick",
    "text_colors": ["#hex1", "#hex2"],
    "stroke_colors": ["#hex"],
    "line_count": número de linhas de texto visíveis,
    "text_shadow": true ou false
  },
  "layout": {
    "person_position": "left/right/center/fullwidth",
    "person_crop": "full-body/torso-up/face-close",
    "person_size": "small/medium/large/dominant",
    "text_zone": "left/right/top/bottom/center-overlay",
    "composition_type": "person-left-text-right/person-right-text-left/person-center-text-overlay/split"
  },
  "colors": {
    "background_main": "#hex ou descrição",
    "background_type": "solid/gradient/scene",
    "accent_1": "#hex",
    "accent_2": "#hex"
  },
  "atmosphere": "Descreva em 2-3 frases o clima visual."
}`

// Extractor turns a reference thumbnail into a DesignSystemAnalysis through
// one vision call.
type Extractor struct {
	client *gemini.Client
	logger *slog.Logger
}

func NewExtractor(client *gemini.Client, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, logger: logger}
}

// Extract returns the analyzed design system, or the canonical empty record
// when the call fails or the response carries no parseable JSON object. The
// degradation is silent: a noncompliant analysis never aborts generation, and
// there are no retries.
func (e *Extractor) Extract(ctx context.Context, ref gemini.ImageInput) DesignSystemAnalysis {
	raw, err := e.client.AnalyzeImage(ctx, analysisInstruction, ref)
	if err != nil {
		e.logger.Warn("reference analysis failed", "err", err)
		return DesignSystemAnalysis{}
	}

	analysis, ok := ParseAnalysis(raw)
	if !ok {
		e.logger.Warn("reference analysis returned no parseable design system")
		return DesignSystemAnalysis{}
	}
	return analysis
}
