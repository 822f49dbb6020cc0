package scrape

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/metrics"
)

// ReviewEntry is one diverted URL in the manual review queue. Status always
// starts as "pending"; external triage owns any transition.
type ReviewEntry struct {
	URL        string    `json:"url"`
	Reason     string    `json:"reason"`
	Screenshot string    `json:"screenshot,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
	Status     string    `json:"status"`
}

// ReviewQueue appends challenge diversions to a single JSON array file so a
// human can revisit them later. Recording is best effort: any persistence
// failure is logged and swallowed, because losing one review entry must not
// abort the crawl.
type ReviewQueue struct {
	path string
	log  *zap.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewReviewQueue builds a queue backed by the JSON file at path.
func NewReviewQueue(path string, log *zap.Logger) *ReviewQueue {
	return &ReviewQueue{path: path, log: log, now: time.Now}
}

// Record appends one entry to the queue file.
func (q *ReviewQueue) Record(url, reason, screenshotPath string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.read()
	if err != nil {
		q.log.Warn("manual review queue unreadable, starting fresh",
			zap.String("file", q.path), zap.Error(err))
		entries = nil
	}

	entries = append(entries, ReviewEntry{
		URL:        url,
		Reason:     reason,
		Screenshot: screenshotPath,
		DetectedAt: q.now().UTC(),
		Status:     "pending",
	})

	if err := q.write(entries); err != nil {
		q.log.Error("persisting manual review entry failed",
			zap.String("url", url), zap.Error(err))
		return
	}

	metrics.ChallengesDetected.Inc()
	q.log.Warn("URL diverted to manual review",
		zap.String("url", url), zap.String("reason", reason))
}

func (q *ReviewQueue) read() ([]ReviewEntry, error) {
	data, err := os.ReadFile(q.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []ReviewEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// write rewrites the whole file through a temp file and rename so a crash
// mid-write cannot corrupt the queue.
func (q *ReviewQueue) write(entries []ReviewEntry) error {
	if err := os.MkdirAll(filepath.Dir(q.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := q.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, q.path)
}
