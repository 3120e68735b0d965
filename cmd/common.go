package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/alantheprice/stackpilot/pkg/analysis"
	"github.com/alantheprice/stackpilot/pkg/assistant"
	"github.com/alantheprice/stackpilot/pkg/config"
	"github.com/alantheprice/stackpilot/pkg/embedding"
	"github.com/alantheprice/stackpilot/pkg/intent"
	"github.com/alantheprice/stackpilot/pkg/llm"
	"github.com/alantheprice/stackpilot/pkg/plan"
	"github.com/alantheprice/stackpilot/pkg/utils"
	"github.com/alantheprice/stackpilot/pkg/workspace"
)

// session carries what every command needs: configuration, logging and the project.
type session struct {
	cfg    *config.Config
	logger *utils.Logger
	root   string

	project *workspace.Project
	gw      *llm.Gateway
	st      *embedding.Store
}

func newSession() (*session, error) {
	cfg, err := config.LoadOrInitConfig(quiet)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w. Run 'stackpilot init' to create one", err)
	}
	if model != "" {
		cfg.GenerationModel = model
	}

	root, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: utils.GetLogger(quiet), root: root}, nil
}

// openProject indexes the project once per session.
func (s *session) openProject() (*workspace.Project, error) {
	if s.project != nil {
		return s.project, nil
	}
	s.logger.LogProcessStep(fmt.Sprintf("Reading project at %s", s.root))
	p, err := workspace.Open(s.root, workspace.Options{
		MaxFiles:  s.cfg.MaxSampleFiles,
		MaxSizeKB: s.cfg.MaxSampleSizeKB,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Logf("Project %s: %d dependencies, %d samples", p.Root, len(p.Dependencies), len(p.Samples))
	s.project = p
	return p, nil
}

// store returns the session's single handle on the embedding cache.
func (s *session) store() *embedding.Store {
	if s.st != nil {
		return s.st
	}
	path := s.cfg.EmbeddingCacheFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	s.st = embedding.NewStore(path)
	return s.st
}

func (s *session) embedder(ctx context.Context) (llm.Embedder, error) {
	e, err := llm.NewEmbedder(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	e = llm.WithEmbedTimeout(e, s.cfg.EmbeddingTimeout())
	return llm.WithRateLimitRetry(e, utils.NewRateLimitBackoff(), s.logger), nil
}

func (s *session) gateway(ctx context.Context) (*llm.Gateway, error) {
	if s.gw != nil {
		return s.gw, nil
	}
	backend, err := llm.NewBackend(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	s.gw = llm.NewGateway(backend, s.cfg.RequestTimeout(), s.logger)
	return s.gw, nil
}

func (s *session) taxonomy(flat bool) (intent.Taxonomy, error) {
	if flat {
		return intent.FlatTaxonomy(), nil
	}
	if s.cfg.TaxonomyFile == "" {
		return intent.DefaultTaxonomy(), nil
	}
	path := s.cfg.TaxonomyFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, path)
	}
	return intent.LoadTaxonomyFile(path)
}

// classifier builds the reference table, reusing cached phrase embeddings.
func (s *session) classifier(ctx context.Context, flat bool) (*intent.Classifier, error) {
	taxonomy, err := s.taxonomy(flat)
	if err != nil {
		return nil, err
	}
	embedder, err := s.embedder(ctx)
	if err != nil {
		return nil, err
	}
	cached, err := embedding.NewCachedEmbedder(embedder, s.store())
	if err != nil {
		return nil, err
	}

	s.logger.LogProcessStep("Preparing intent references")
	classifier, err := intent.NewClassifier(ctx, embedder, taxonomy, intent.Options{
		MemoSize:       s.cfg.QueryCacheSize,
		PhraseEmbedder: cached,
	})
	if err != nil {
		return nil, err
	}
	if cached.Misses() > 0 {
		// Not fatal: the phrases are embedded again next time
		if err := cached.Flush(); err != nil {
			s.logger.Logf("Could not save phrase embeddings: %v", err)
		}
	}
	return classifier, nil
}

func (s *session) producer(ctx context.Context) (*plan.Producer, error) {
	p, err := s.openProject()
	if err != nil {
		return nil, err
	}
	gw, err := s.gateway(ctx)
	if err != nil {
		return nil, err
	}
	refiner := plan.NewRefiner(gw, s.cfg.RefineMaxRounds, s.logger)
	return plan.NewProducer(gw, refiner, p.Summary(), s.logger), nil
}

func (s *session) analyzer(ctx context.Context) (*analysis.Analyzer, error) {
	p, err := s.openProject()
	if err != nil {
		return nil, err
	}
	gw, err := s.gateway(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.NewAnalyzer(gw, p, s.cfg.ExcerptChars, s.logger), nil
}

func (s *session) assistant(ctx context.Context) (*assistant.Assistant, error) {
	classifier, err := s.classifier(ctx, false)
	if err != nil {
		return nil, err
	}
	analyzer, err := s.analyzer(ctx)
	if err != nil {
		return nil, err
	}
	producer, err := s.producer(ctx)
	if err != nil {
		return nil, err
	}
	return assistant.New(classifier, analyzer, producer, s.cfg.ConfidenceThreshold, s.logger), nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printResponse(w io.Writer, resp *assistant.Response) error {
	switch resp.Kind {
	case assistant.KindPlan:
		fmt.Fprintf(w, "Intent: %s\n\n", resp.Classification)
		return printOutcome(w, resp.Plan, false)
	case assistant.KindAnalysis:
		fmt.Fprintf(w, "Intent: %s\n\n%s\n", resp.Classification, resp.Text)
	default:
		fmt.Fprintln(w, resp.Text)
	}
	return nil
}

func printOutcome(w io.Writer, o *plan.Outcome, showDiff bool) error {
	if o == nil {
		return nil
	}
	if o.Plan == nil {
		fmt.Fprintf(w, "The model did not return a plan:\n%s\n", o.Raw)
		return nil
	}

	if err := printJSON(w, o.Plan); err != nil {
		return err
	}
	if o.Refined() {
		fmt.Fprintf(w, "\nRefined %d issue(s) in %d round(s)", len(o.Issues), o.Rounds)
		if o.Original != nil {
			added, removed, err := plan.DiffStats(o.Original, o.Plan)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, ", +%d/-%d line(s)", added, removed)
		}
		fmt.Fprintln(w)
	}
	if len(o.Remaining) > 0 {
		fmt.Fprintln(w, "Remaining issues:")
		for _, issue := range o.Remaining {
			fmt.Fprintf(w, "  - %s\n", issue)
		}
	}

	if showDiff && o.Refined() && o.Original != nil {
		diff, err := plan.Diff(o.Original, o.Plan)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nChanges made during refinement:\n%s", diff)
		if !strings.HasSuffix(diff, "\n") {
			fmt.Fprintln(w)
		}
	}
	return nil
}
