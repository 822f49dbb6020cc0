package analyze

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/config"
	"github.com/mkarwowski/adscout/internal/metrics"
	"github.com/mkarwowski/adscout/internal/retry"
	"github.com/mkarwowski/adscout/internal/scrape"
)

// PromptChannel sends one prompt to the model and returns its raw text
// response.
type PromptChannel interface {
	Prompt(ctx context.Context, text string) (string, error)
}

// Result is the analysis outcome for one record. SimpleScore is always the
// local completeness score, regardless of where Analysis came from.
type Result struct {
	Analysis    Analysis
	IsFallback  bool
	SimpleScore int
}

// Analyzer runs the model protocol: prompt, validate, correct, retry, and
// finally degrade to the local heuristic. Analyze never fails; the worst
// outcome is a fallback result.
type Analyzer struct {
	channel PromptChannel
	policy  retry.Policy
	log     *zap.Logger
}

// NewAnalyzer builds an Analyzer over the given channel.
func NewAnalyzer(channel PromptChannel, cfg config.ModelConfig, log *zap.Logger) *Analyzer {
	return &Analyzer{
		channel: channel,
		policy: retry.Policy{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
		},
		log: log,
	}
}

// Analyze scores one record. Invalid model output triggers a correction
// prompt that quotes the rejected response; channel errors back off and
// retry. When the budget runs out the heuristic takes over.
func (a *Analyzer) Analyze(ctx context.Context, rec scrape.ListingRecord) Result {
	prompt := BuildPrompt(rec)

	var analysis Analysis
	err := a.policy.Do(ctx, func(attempt int) error {
		raw, err := a.channel.Prompt(ctx, prompt)
		if err != nil {
			a.log.Warn("model call failed",
				zap.String("url", rec.URL), zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		parsed, perr := ParseAnalysis(raw)
		if perr != nil {
			a.log.Warn("model response rejected",
				zap.String("url", rec.URL), zap.Int("attempt", attempt), zap.Error(perr))
			prompt = BuildCorrectionPrompt(rec, raw, perr.Error())
			return perr
		}

		analysis = parsed
		return nil
	})
	if err != nil {
		metrics.AnalysisFallbacks.Inc()
		a.log.Warn("model analysis exhausted, using heuristic",
			zap.String("url", rec.URL), zap.Error(err))
		return Result{Analysis: Fallback(rec), IsFallback: true, SimpleScore: SimpleScore(rec)}
	}

	return Result{Analysis: analysis, SimpleScore: SimpleScore(rec)}
}
