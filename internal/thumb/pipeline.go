package thumb

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"thumb-forge-ai/internal/gemini"
)

// Request carries one generation job. Similarity may be any int; it is
// clamped before use. All images are optional.
type Request struct {
	Objective  string
	Brief      string
	Similarity int
	Person     *gemini.ImageInput
	Reference  *gemini.ImageInput
	Extra      *gemini.ImageInput
}

// Result is the transient output of one generation: the synthesized
// background, the overlay sequence, and the (possibly empty) analysis.
type Result struct {
	Image    []byte
	Elements []TextElement
	Analysis DesignSystemAnalysis
}

// Timeouts are per-call deadlines: analysis and text generation are quick
// vision/text calls, synthesis is the slow step.
type Timeouts struct {
	Analysis  time.Duration
	Synthesis time.Duration
	Text      time.Duration
}

type Pipeline struct {
	client    *gemini.Client
	extractor *Extractor
	elements  *ElementGenerator
	logger    *slog.Logger
	timeouts  Timeouts
}

func NewPipeline(client *gemini.Client, logger *slog.Logger, timeouts Timeouts) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if timeouts.Analysis <= 0 {
		timeouts.Analysis = 60 * time.Second
	}
	if timeouts.Synthesis <= 0 {
		timeouts.Synthesis = 180 * time.Second
	}
	if timeouts.Text <= 0 {
		timeouts.Text = 30 * time.Second
	}

	return &Pipeline{
		client:    client,
		extractor: NewExtractor(client, logger),
		elements:  NewElementGenerator(client, logger),
		logger:    logger,
		timeouts:  timeouts,
	}
}

// Generate runs the full request: reference analysis, prompt composition,
// then image synthesis with text-element generation in parallel (the overlay
// depends only on pre-synthesis inputs, so the two calls are joined at the
// result). The only fatal failure is the synthesis call; analysis and
// overlay failures degrade to empty values.
func (p *Pipeline) Generate(ctx context.Context, req Request) (Result, error) {
	var analysis DesignSystemAnalysis
	if req.Reference != nil {
		actx, cancel := context.WithTimeout(ctx, p.timeouts.Analysis)
		analysis = p.extractor.Extract(actx, *req.Reference)
		cancel()
	}

	prompt := ComposePrompt(ComposeInput{
		Objective:  req.Objective,
		Brief:      req.Brief,
		Analysis:   analysis,
		Similarity: req.Similarity,
		HasPerson:  req.Person != nil,
		HasExtra:   req.Extra != nil,
	})

	// Inline image order is fixed: person first, reference, extra last. The
	// composed prompt refers to the first and last slots by position.
	images := make([]gemini.ImageInput, 0, 3)
	for _, img := range []*gemini.ImageInput{req.Person, req.Reference, req.Extra} {
		if img != nil {
			images = append(images, *img)
		}
	}

	var (
		image    []byte
		elements []TextElement
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		sctx, cancel := context.WithTimeout(egCtx, p.timeouts.Synthesis)
		defer cancel()

		var err error
		image, err = p.client.GenerateImage(sctx, prompt, images)
		return err
	})
	eg.Go(func() error {
		tctx, cancel := context.WithTimeout(egCtx, p.timeouts.Text)
		defer cancel()

		elements = p.elements.Generate(tctx, req.Objective, req.Brief, analysis)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return Result{}, err
	}

	return Result{Image: image, Elements: elements, Analysis: analysis}, nil
}
