package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claro-ops/media-intel/internal/objectstore"
	"github.com/claro-ops/media-intel/pkg/providers"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify renders a term name safe for use as an S3 key segment.
func slugify(s string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "term"
	}
	return slug
}

// snapshotKey builds the raw-snapshot object key: one JSON blob per
// (run, target) pair, partitioned by date so a bucket lifecycle rule
// can expire old snapshots without scanning the whole prefix.
func snapshotKey(runID uuid.UUID, trigger, termName string, at time.Time) string {
	return fmt.Sprintf("ingestion/%s/%s/%s/%s.json",
		at.UTC().Format("2006-01-02"), trigger, runID, slugify(termName))
}

// writeSnapshot persists the raw, unfiltered provider results for one
// target before any evaluation/filtering happens, so a failed
// downstream step never loses the original fetch.
func writeSnapshot(ctx context.Context, objects *objectstore.Store, bucket string, runID uuid.UUID, trigger string, t target, raw []providers.ProviderFetchResult) (string, error) {
	body, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("ingestion: marshal raw snapshot for %q: %w", t.name, err)
	}
	key := snapshotKey(runID, trigger, t.name, time.Now())
	if err := objects.Put(ctx, bucket, key, body, "application/json"); err != nil {
		return "", fmt.Errorf("ingestion: write raw snapshot for %q: %w", t.name, err)
	}
	return key, nil
}
