// Package metrics exposes Prometheus counters for the scrape pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched tracks rendered page fetches, labeled by kind (search/detail).
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscout_pages_fetched_total",
		Help: "The total number of pages fetched, by page kind.",
	}, []string{"kind"})
	// ListingsScraped tracks listing records successfully extracted.
	ListingsScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_listings_scraped_total",
		Help: "The total number of listing records extracted.",
	})
	// ChallengesDetected tracks pages diverted to manual review.
	ChallengesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_challenges_detected_total",
		Help: "The total number of anti-bot challenge pages detected.",
	})
	// HeadlessPromotions tracks probe fetches escalated to the headless renderer.
	HeadlessPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_headless_promotions_total",
		Help: "The total number of fetches promoted to headless rendering.",
	})
	// AnalysisFallbacks tracks records scored by the local heuristic.
	AnalysisFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_analysis_fallbacks_total",
		Help: "The total number of records scored by the fallback heuristic.",
	})
	// Deliveries tracks webhook delivery outcomes, labeled by status.
	Deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adscout_deliveries_total",
		Help: "The total number of delivery attempts that concluded, by outcome.",
	}, []string{"status"})
	// FailedPayloadsPersisted tracks records captured on disk after exhausted delivery.
	FailedPayloadsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "adscout_failed_payloads_persisted_total",
		Help: "The total number of undeliverable payloads persisted locally.",
	})
)
