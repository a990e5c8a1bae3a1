package thumb

import (
	"encoding/json"
	"strings"
)

// DesignSystemAnalysis is the structured visual system extracted from a
// reference thumbnail. The zero value is the canonical empty record: any
// extraction failure degrades to it instead of propagating partial data.
type DesignSystemAnalysis struct {
	Typography Typography `json:"typography"`
	Layout     Layout     `json:"layout"`
	Colors     Colors     `json:"colors"`
	Atmosphere string     `json:"atmosphere"`
}

type Typography struct {
	HeadlineFont    string   `json:"headline_font"`
	HeadlineWeight  string   `json:"headline_weight"`
	TextCase        string   `json:"text_case"`
	HasStroke       bool     `json:"has_stroke"`
	StrokeThickness string   `json:"stroke_thickness"`
	TextColors      []string `json:"text_colors"`
	StrokeColors    []string `json:"stroke_colors"`
	LineCount       int      `json:"line_count"`
	TextShadow      bool     `json:"text_shadow"`
}

type Layout struct {
	PersonPosition  string `json:"person_position"`
	PersonCrop      string `json:"person_crop"`
	PersonSize      string `json:"person_size"`
	TextZone        string `json:"text_zone"`
	CompositionType string `json:"composition_type"`
}

type Colors struct {
	BackgroundMain string `json:"background_main"`
	BackgroundType string `json:"background_type"`
	Accent1        string `json:"accent_1"`
	Accent2        string `json:"accent_2"`
}

func (a DesignSystemAnalysis) Empty() bool {
	t := a.Typography
	return a.Atmosphere == "" &&
		t.HeadlineFont == "" && t.HeadlineWeight == "" && t.TextCase == "" &&
		!t.HasStroke && t.StrokeThickness == "" &&
		len(t.TextColors) == 0 && len(t.StrokeColors) == 0 &&
		t.LineCount == 0 && !t.TextShadow &&
		a.Layout == (Layout{}) && a.Colors == (Colors{})
}

// ParseAnalysis recovers a design-system record from free-form model output.
// The response may narrate before and after the JSON, so the parse target is
// the greedy span from the first '{' to the last '}'. A missing span or any
// decode error yields (empty, false).
func ParseAnalysis(raw string) (DesignSystemAnalysis, bool) {
	span, ok := jsonObjectSpan(raw)
	if !ok {
		return DesignSystemAnalysis{}, false
	}

	var a DesignSystemAnalysis
	if err := json.Unmarshal([]byte(span), &a); err != nil {
		return DesignSystemAnalysis{}, false
	}
	return a, true
}

func jsonObjectSpan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func jsonArraySpan(raw string) (string, bool) {
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
