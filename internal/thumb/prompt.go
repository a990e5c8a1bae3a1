package thumb

import (
	"fmt"
	"strings"
)

// Canvas dimensions every thumbnail targets.
const (
	CanvasWidth  = 1280
	CanvasHeight = 720
)

// Defaults used whenever the design-system record (or one of its fields) is
// missing, so the composed instruction is always fully specified.
const (
	defaultHeadlineFont    = "Impact"
	defaultHeadlineWeight  = "bold"
	defaultTextCase        = "UPPERCASE"
	defaultStrokeThickness = "medium"
	defaultTextColor       = "#FFFFFF"
	defaultStrokeColor     = "#000000"
	defaultLineCount       = 2
	defaultComposition     = "person-right-text-left"
	defaultPersonPosition  = "right"
	defaultPersonCrop      = "torso-up"
	defaultPersonSize      = "large"
	defaultTextZone        = "left"
	defaultBackground      = "#0D0D1A"
	defaultBackgroundType  = "solid"
	defaultAccent1         = "#FFD700"
	defaultAccent2         = "#FFFFFF"
)

type ComposeInput struct {
	Objective  string
	Brief      string
	Analysis   DesignSystemAnalysis
	Similarity int
	HasPerson  bool
	HasExtra   bool
}

// ComposePrompt merges objective guidance, fidelity calibration, the
// design-system record, and the creator brief into the single instruction
// sent to the image model. Pure string construction: unknown objectives get
// an empty guidance sentence, missing analysis fields get defaults.
func ComposePrompt(in ComposeInput) string {
	tier := TierFor(in.Similarity)

	var b strings.Builder
	b.Grow(2048)

	b.WriteString("Você é um especialista em criação de thumbnails virais para YouTube com alto CTR.\n\n")
	b.WriteString("OBJETIVO: " + Guidance(in.Objective) + "\n")

	writeDesignSection(&b, in.Analysis, tier)

	b.WriteString("INSTRUÇÃO DO CRIADOR: " + strings.TrimSpace(in.Brief) + "\n\n")

	b.WriteString("REGRAS ABSOLUTAS:\n")
	b.WriteString(fmt.Sprintf("- Resolução: exatamente %dx%d pixels, formato 16:9 horizontal\n", CanvasWidth, CanvasHeight))
	if in.HasPerson {
		b.WriteString("- A PRIMEIRA IMAGEM enviada é a pessoa protagonista — inclua ela de forma clara e visível na thumbnail\n")
	} else {
		b.WriteString("- Crie uma composição visualmente impactante mesmo sem foto de pessoa\n")
	}
	b.WriteString("- ⚠️ CRÍTICO — SEM TEXTO NA IMAGEM: NÃO inclua nenhum texto, palavra, número, letra, título ou legenda na imagem. Zero texto. A composição deve conter APENAS elementos visuais: pessoa, fundo, cores, gradientes, formas gráficas. O texto será adicionado como camada editável separada.\n")
	b.WriteString("- RESPEITE a estrutura e composição do template: layout, hierarquia visual, posição da pessoa e zonas de design\n")
	b.WriteString("- Deixe as áreas de texto claramente definidas (contraste/espaço vazio) para receber os títulos depois\n")
	if in.HasExtra {
		b.WriteString("- A ÚLTIMA IMAGEM enviada é um elemento gráfico extra (logo/sticker/overlay) — posicione-o de forma harmoniosa e visível na composição, respeitando a hierarquia visual.\n")
	}

	b.WriteString("\nGere apenas a imagem de fundo sem texto. Nenhum texto explicativo.")

	return b.String()
}

func writeDesignSection(b *strings.Builder, a DesignSystemAnalysis, tier FidelityTier) {
	const divider = "═══════════════════════════════════════════\n"

	t := a.Typography
	l := a.Layout
	c := a.Colors

	b.WriteString(divider)
	b.WriteString(tier.Header + "\n")
	b.WriteString(tier.Rule + "\n")
	b.WriteString(divider)
	b.WriteString("TIPOGRAFIA:\n")
	b.WriteString(fmt.Sprintf("- Fonte: %s | Peso: %s | Caixa: %s\n",
		orDefault(t.HeadlineFont, defaultHeadlineFont),
		orDefault(t.HeadlineWeight, defaultHeadlineWeight),
		orDefault(t.TextCase, defaultTextCase),
	))
	b.WriteString(fmt.Sprintf("- Contorno: %s (%s)\n",
		simNao(t.HasStroke),
		orDefault(t.StrokeThickness, defaultStrokeThickness),
	))
	b.WriteString(fmt.Sprintf("- Cores texto: %s | Contorno: %s\n",
		joinOrDefault(t.TextColors, defaultTextColor),
		joinOrDefault(t.StrokeColors, defaultStrokeColor),
	))
	b.WriteString(fmt.Sprintf("- Linhas: %d | Sombra: %s\n", clampLineCount(t.LineCount), simNao(t.TextShadow)))
	b.WriteString(fmt.Sprintf("LAYOUT: %s | Pessoa: %s %s %s | Texto: %s\n",
		orDefault(l.CompositionType, defaultComposition),
		orDefault(l.PersonPosition, defaultPersonPosition),
		orDefault(l.PersonCrop, defaultPersonCrop),
		orDefault(l.PersonSize, defaultPersonSize),
		orDefault(l.TextZone, defaultTextZone),
	))
	b.WriteString(fmt.Sprintf("CORES: Fundo %s (%s) | Destaque %s / %s\n",
		orDefault(c.BackgroundMain, defaultBackground),
		orDefault(c.BackgroundType, defaultBackgroundType),
		orDefault(c.Accent1, defaultAccent1),
		orDefault(c.Accent2, defaultAccent2),
	))
	b.WriteString("ATMOSFERA: " + a.Atmosphere + "\n")
	b.WriteString(divider)
}

// clampLineCount bounds the visible line count to [1,3]; zero means the
// field was absent and falls back to the default.
func clampLineCount(n int) int {
	if n == 0 {
		n = defaultLineCount
	}
	if n < 1 {
		return 1
	}
	if n > 3 {
		return 3
	}
	return n
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func joinOrDefault(list []string, fallback string) string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return fallback
	}
	return strings.Join(out, ", ")
}

func simNao(v bool) string {
	if v {
		return "SIM"
	}
	return "NÃO"
}
