// Package deliver pushes finished records to the webhook sink with bounded
// retries and keeps undeliverable payloads on disk.
package deliver

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkarwowski/adscout/internal/metrics"
)

// FailStore persists payloads that could not be delivered so a later replay
// can pick them up. File names carry the timestamp and record id:
// failed_20250825_143012_abc123.json.
type FailStore struct {
	dir string
	log *zap.Logger
	now func() time.Time
}

// NewFailStore builds a store writing under dir.
func NewFailStore(dir string, log *zap.Logger) *FailStore {
	return &FailStore{dir: dir, log: log, now: time.Now}
}

var unsafeFilenameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeID reduces an arbitrary record id (which may be a full URL) to a
// safe file name fragment. The file must always be writable: losing the
// payload over a bad id would break the no-data-loss guarantee.
func sanitizeID(id string) string {
	id = unsafeFilenameRe.ReplaceAllString(id, "_")
	id = strings.Trim(id, "._-")
	const maxIDLen = 80
	if len(id) > maxIDLen {
		id = id[:maxIDLen]
	}
	if id == "" {
		return "unknown"
	}
	return id
}

// Persist writes one payload to the store and returns the file path.
func (s *FailStore) Persist(id string, payload []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("fail store dir: %w", err)
	}

	name := fmt.Sprintf("failed_%s_%s.json", s.now().UTC().Format("20060102_150405"), sanitizeID(id))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("persist failed payload: %w", err)
	}

	metrics.FailedPayloadsPersisted.Inc()
	s.log.Warn("undeliverable payload persisted", zap.String("file", path))
	return path, nil
}
