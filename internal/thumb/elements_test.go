package thumb

import (
	"strings"
	"testing"
)

func TestOverlayDefaultsFor(t *testing.T) {
	tests := []struct {
		name        string
		zone        string
		hasStroke   bool
		wantBaseX   float64
		wantStrokeW float64
	}{
		{"empty zone falls back left", "", false, 60, 0},
		{"left zone", "left", false, 60, 0},
		{"right zone", "right", false, 700, 0},
		{"compound right zone", "bottom-right", false, 700, 0},
		{"center zone", "center", true, 300, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a DesignSystemAnalysis
			a.Layout.TextZone = tt.zone
			a.Typography.HasStroke = tt.hasStroke

			d := overlayDefaultsFor(a)
			if d.BaseX != tt.wantBaseX {
				t.Errorf("BaseX = %v, want %v", d.BaseX, tt.wantBaseX)
			}
			if d.StrokeWidth != tt.wantStrokeW {
				t.Errorf("StrokeWidth = %v, want %v", d.StrokeWidth, tt.wantStrokeW)
			}
		})
	}
}

func TestOverlayDefaultsFontFallback(t *testing.T) {
	d := overlayDefaultsFor(DesignSystemAnalysis{})
	if d.Font != "Anton" {
		t.Errorf("Font = %q, want Anton", d.Font)
	}

	var a DesignSystemAnalysis
	a.Typography.HeadlineFont = "Montserrat"
	if d := overlayDefaultsFor(a); d.Font != "Montserrat" {
		t.Errorf("Font = %q, want Montserrat", d.Font)
	}
}

func TestParseElementsTruncatesToThree(t *testing.T) {
	raw := `[{"text":"UM"},{"text":"DOIS"},{"text":"TRÊS"},{"text":"QUATRO"},{"text":"CINCO"}]`
	got := parseElements(raw, overlayDefaultsFor(DesignSystemAnalysis{}))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[2].Text != "TRÊS" {
		t.Errorf("third element text = %q", got[2].Text)
	}
}

func TestParseElementsFillsDefaults(t *testing.T) {
	d := overlayDefaultsFor(DesignSystemAnalysis{})
	raw := `[{"text":"GANHEI 100 MIL"},{"text":"EM 30 DIAS"},{"text":"SEM INVESTIR"}]`

	got := parseElements(raw, d)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	wantSizes := []float64{130, 90, 60}
	wantYs := []float64{80, 260, 440}
	for i, el := range got {
		if el.ID != []string{"t0", "t1", "t2"}[i] {
			t.Errorf("element %d ID = %q", i, el.ID)
		}
		if el.FontSize != wantSizes[i] {
			t.Errorf("element %d FontSize = %v, want %v", i, el.FontSize, wantSizes[i])
		}
		if el.Y != wantYs[i] {
			t.Errorf("element %d Y = %v, want %v", i, el.Y, wantYs[i])
		}
		if el.X != 60 {
			t.Errorf("element %d X = %v, want 60", i, el.X)
		}
		if el.FontFamily != "Anton" || el.FontWeight != "bold" {
			t.Errorf("element %d style defaults not applied: %+v", i, el)
		}
	}
}

func TestParseElementsCoercesMalformedFields(t *testing.T) {
	d := overlayDefaultsFor(DesignSystemAnalysis{})
	raw := `[{"text":"OK","x":"oitenta","fontSize":null,"fill":42,"id":""}]`

	got := parseElements(raw, d)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	el := got[0]
	if el.Text != "OK" {
		t.Errorf("Text = %q", el.Text)
	}
	if el.X != d.BaseX {
		t.Errorf("malformed x must fall back, got %v", el.X)
	}
	if el.FontSize != 130 {
		t.Errorf("null fontSize must cascade, got %v", el.FontSize)
	}
	if el.Fill != d.Fill {
		t.Errorf("non-string fill must fall back, got %q", el.Fill)
	}
	if el.ID != "t0" {
		t.Errorf("blank id must fall back, got %q", el.ID)
	}
}

func TestParseElementsNoArray(t *testing.T) {
	d := overlayDefaultsFor(DesignSystemAnalysis{})
	for _, raw := range []string{"", "sem json aqui", `{"text":"objeto, não array"}`, "[broken"} {
		if got := parseElements(raw, d); got != nil {
			t.Errorf("parseElements(%q) = %v, want nil", raw, got)
		}
	}
}

func TestParseElementsKeepsProvidedValues(t *testing.T) {
	d := overlayDefaultsFor(DesignSystemAnalysis{})
	raw := `[{"id":"custom","text":"X","x":710,"y":95,"fontSize":144,"fontFamily":"Oswald","fill":"#FF0000","stroke":"#111111","strokeWidth":6,"fontWeight":"900"}]`

	got := parseElements(raw, d)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	el := got[0]
	if el.ID != "custom" || el.X != 710 || el.Y != 95 || el.FontSize != 144 ||
		el.FontFamily != "Oswald" || el.Fill != "#FF0000" || el.Stroke != "#111111" ||
		el.StrokeWidth != 6 || el.FontWeight != "900" {
		t.Errorf("provided values must survive coercion: %+v", el)
	}
}

func TestElementsPrompt(t *testing.T) {
	var a DesignSystemAnalysis
	a.Typography.LineCount = 3
	a.Layout.TextZone = "right"
	d := overlayDefaultsFor(a)

	prompt := elementsPrompt("dinheiro", "faturei 100 mil", d)
	for _, want := range []string{
		"Crie exatamente 3 texto(s)",
		"x base: 700px",
		"EM CAIXA ALTA",
		"faturei 100 mil",
		"Resultado financeiro expressivo",
		"APENAS JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
