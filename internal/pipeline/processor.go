package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/analyze"
	"github.com/mkarwowski/adscout/internal/scrape"
)

// Analyzer scores one record. It must not fail; the worst outcome is a
// fallback result.
type Analyzer interface {
	Analyze(ctx context.Context, rec scrape.ListingRecord) analyze.Result
}

// Deliverer pushes one envelope to the sink and reports success.
type Deliverer interface {
	Deliver(ctx context.Context, id string, payload any) bool
}

// ImageMirror optionally saves listing images locally.
type ImageMirror interface {
	Download(ctx context.Context, rec scrape.ListingRecord) []string
}

// Processor handles one record end to end: analyze, envelope, deliver. It is
// the Emit handed to the crawler, so the next page fetch does not start until
// the current record's delivery attempt has concluded.
type Processor struct {
	analyzer Analyzer
	sender   Deliverer
	images   ImageMirror // nil when image mirroring is disabled
	source   string
	session  string
	log      *zap.Logger
}

// NewProcessor wires a Processor. A fresh session id is minted per process.
func NewProcessor(analyzer Analyzer, sender Deliverer, images ImageMirror, source string, log *zap.Logger) *Processor {
	return &Processor{
		analyzer: analyzer,
		sender:   sender,
		images:   images,
		source:   source,
		session:  uuid.NewString(),
		log:      log,
	}
}

// Process implements scrape.Emit. Delivery failure is terminal for the
// record, not the session: the payload is already persisted by the sender,
// so Process only propagates context cancellation.
func (p *Processor) Process(ctx context.Context, rec scrape.ListingRecord) error {
	res := p.analyzer.Analyze(ctx, rec)

	env := Envelope{
		ListingRecord: rec,
		AIAnalysis:    res.Analysis,
		FallbackScore: res.SimpleScore,
		Metadata: Metadata{
			ScrapedAt:        rec.ScrapedAt,
			Source:           p.source,
			SearchQuery:      rec.SearchQuery,
			ProcessorVersion: ProcessorVersion,
			SessionID:        p.session,
		},
	}

	if p.images != nil {
		env.LocalImages = p.images.Download(ctx, rec)
	}

	id := rec.ID
	if id == "" {
		id = rec.URL
	}
	if !p.sender.Deliver(ctx, id, env) {
		p.log.Warn("record not delivered", zap.String("url", rec.URL))
	}

	return ctx.Err()
}
