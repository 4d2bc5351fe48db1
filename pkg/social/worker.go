package social

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claro-ops/media-intel/internal/config"
	"github.com/claro-ops/media-intel/internal/objectstore"
	"github.com/claro-ops/media-intel/internal/store"
	"github.com/claro-ops/media-intel/pkg/incident"
	"github.com/claro-ops/media-intel/pkg/metrics"
	"github.com/claro-ops/media-intel/pkg/shared/logging"
)

// objectLister is the slice of internal/objectstore.Store that Worker
// needs, narrowed so tests can substitute a fake without a live S3
// client — the same accept-interfaces idiom as pkg/classification's
// enqueuer and pkg/report's exportEnqueuer/scheduleEnqueuer.
type objectLister interface {
	List(ctx context.Context, bucket, prefix string) ([]objectstore.ObjectInfo, error)
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Worker runs one channel's (or every active channel's) social
// ingestion pass per spec §4.3.1.
type Worker struct {
	store   store.Store
	objects objectLister
	bucket  string
	social  config.SocialConfig
	alert   config.AlertConfig
	logger  *zap.Logger
}

// NewWorker builds a Worker from its dependencies.
func NewWorker(s store.Store, objects *objectstore.Store, bucket string, social config.SocialConfig, alert config.AlertConfig, logger *zap.Logger) *Worker {
	return &Worker{store: s, objects: objects, bucket: bucket, social: social, alert: alert, logger: logger}
}

// newWorkerWithObjects is NewWorker with an injectable objectLister, for tests.
func newWorkerWithObjects(s store.Store, objects objectLister, bucket string, social config.SocialConfig, alert config.AlertConfig, logger *zap.Logger) *Worker {
	return &Worker{store: s, objects: objects, bucket: bucket, social: social, alert: alert, logger: logger}
}

// Run executes msg: one channel if ChannelID is set, otherwise a sweep
// across every active channel.
func (w *Worker) Run(ctx context.Context, msg DispatchMessage) ([]ChannelResult, error) {
	if msg.ChannelID != uuid.Nil {
		channel, err := w.store.GetSocialChannel(ctx, msg.ChannelID)
		if err != nil {
			return nil, fmt.Errorf("social: get channel %s: %w", msg.ChannelID, err)
		}
		result, err := w.processChannel(ctx, channel)
		return []ChannelResult{result}, err
	}
	return w.Sweep(ctx)
}

// Sweep processes every active social channel.
func (w *Worker) Sweep(ctx context.Context) ([]ChannelResult, error) {
	channels, err := w.store.ListActiveSocialChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("social: list active channels: %w", err)
	}

	results := make([]ChannelResult, 0, len(channels))
	for i := range channels {
		result, err := w.processChannel(ctx, &channels[i])
		if err != nil {
			w.logger.Error("social channel ingestion failed",
				logging.NewFields().Component("social").Operation("process_channel").
					Resource("social_channel", channels[i].ID.String()).Error(err).ToZapFields()...)
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// processChannel implements spec §4.3.1 steps 1-5 for one channel.
func (w *Worker) processChannel(ctx context.Context, channel *store.SocialChannel) (ChannelResult, error) {
	result := ChannelResult{ChannelID: channel.ID, Status: StatusOK}

	objects, err := w.objects.List(ctx, w.bucket, channel.ObjectKeyPrefix)
	if err != nil {
		return result, fmt.Errorf("social: list objects for channel %s: %w", channel.ID, err)
	}
	sortNewestFirst(objects)

	var (
		totalPosts     []postCandidate
		worstStatus    = StatusOK
		anyAcceptedRow bool
	)

	for _, obj := range objects {
		result.ObjectsScanned++

		var objectStatus ReconciliationStatus
		var ingested int

		txErr := w.store.Tx(ctx, func(ctx context.Context, tx store.Store) error {
			alreadyProcessed, err := tx.MarkSocialObjectProcessed(ctx, channel.ID, obj.Key, obj.ETag)
			if err != nil {
				return fmt.Errorf("mark object %s processed: %w", obj.Key, err)
			}
			if alreadyProcessed {
				return nil
			}
			result.ObjectsMarked++

			body, err := w.objects.Get(ctx, w.bucket, obj.Key)
			if err != nil {
				return fmt.Errorf("get object %s: %w", obj.Key, err)
			}

			parsed, parseErr := parseCSV(bytes.NewReader(body))
			if parseErr != nil {
				objectStatus = StatusFailed
				w.logger.Warn("social object failed to parse",
					logging.NewFields().Component("social").Operation("parse").
						Resource("social_channel", channel.ID.String()).Custom("object_key", obj.Key).
						Error(parseErr).ToZapFields()...)
				return nil
			}

			objectStatus = acceptRateStatus(parsed.rowsTotal, len(parsed.candidates))
			if len(parsed.candidates) == 0 {
				return nil
			}

			posts := make([]store.SocialPost, 0, len(parsed.candidates))
			for _, c := range parsed.candidates {
				posts = append(posts, store.SocialPost{
					ChannelID:     channel.ID,
					ExternalID:    c.ExternalID,
					Author:        c.Author,
					Body:          c.Body,
					PublishedAt:   c.PublishedAt,
					SentimentHint: c.SentimentHint,
				})
			}
			ingested, err = tx.InsertSocialPosts(ctx, posts)
			if err != nil {
				return fmt.Errorf("insert social posts: %w", err)
			}
			totalPosts = append(totalPosts, parsed.candidates...)
			return nil
		})
		if txErr != nil {
			return result, fmt.Errorf("social: process object %s: %w", obj.Key, txErr)
		}

		result.PostsIngested += ingested
		if objectStatus != "" {
			anyAcceptedRow = true
			worstStatus = worseStatus(worstStatus, objectStatus)
			metrics.RecordSocialObject(channel.Name, objectStatus)
		}
	}
	metrics.RecordSocialPosts(channel.Name, result.PostsIngested)

	if anyAcceptedRow {
		result.Status = worstStatus
	}

	if result.Status != StatusFailed {
		result.NegativeHintShare = negativeHintShare(totalPosts)
		if shouldRaiseIncident(totalPosts, result.NegativeHintShare, w.social) {
			triggered, err := w.raiseIncident(ctx, result.NegativeHintShare, len(totalPosts))
			if err != nil {
				w.logger.Error("social incident raise failed",
					logging.NewFields().Component("social").Operation("raise_incident").
						Resource("social_channel", channel.ID.String()).Error(err).ToZapFields()...)
			}
			result.TriggeredIncident = triggered
		}
	}

	rec := &store.SocialChannelReconciliation{
		ChannelID:         channel.ID,
		Status:            result.Status,
		ObjectsScanned:    result.ObjectsScanned,
		ObjectsMarked:     result.ObjectsMarked,
		PostsIngested:     result.PostsIngested,
		NegativeHintShare: result.NegativeHintShare,
		TriggeredIncident: result.TriggeredIncident,
	}
	if err := w.store.RecordSocialReconciliation(ctx, rec); err != nil {
		return result, fmt.Errorf("social: record reconciliation for channel %s: %w", channel.ID, err)
	}

	return result, nil
}

// raiseIncident reuses pkg/incident's cooldown/escalate state machine,
// tagged source=social, per spec §4.3.1 step 5.
func (w *Worker) raiseIncident(ctx context.Context, negativeShare float64, posts int) (bool, error) {
	severity := store.SeveritySEV3
	if negativeShare >= 0.8 {
		severity = store.SeveritySEV2
	}

	payload := store.IncidentPayload{
		Scope:         store.TaxonomyScopeClaro,
		RiskWeighted:  negativeShare * 100,
		SignalVersion: w.alert.SignalVersion,
		Source:        "social",
	}

	outcome, err := incident.DriveScope(ctx, w.store, w.alert.SignalVersion, store.TaxonomyScopeClaro,
		severity, negativeShare*100, posts, w.alert.CooldownMinutes, payload)
	if err != nil {
		return false, err
	}
	return outcome == incident.OutcomeCreated || outcome == incident.OutcomeEscalated, nil
}

func acceptRateStatus(rowsTotal, rowsAccepted int) ReconciliationStatus {
	if rowsTotal == 0 {
		return StatusOK
	}
	rate := float64(rowsAccepted) / float64(rowsTotal)
	switch {
	case rate >= acceptRateOK:
		return StatusOK
	case rate >= acceptRateWarning:
		return StatusWarning
	default:
		return StatusFailed
	}
}

func worseStatus(a, b ReconciliationStatus) ReconciliationStatus {
	rank := map[ReconciliationStatus]int{StatusOK: 0, StatusWarning: 1, StatusFailed: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// negativeHintShare computes the trailing-24h negative-sentiment-hint
// share over the posts ingested in this pass (the Store interface has
// no historical social-post query, so this approximates spec
// §4.3.1 step 5's "trailing-24h" window from the freshest data this
// run actually saw — see DESIGN.md for the reasoning).
func negativeHintShare(posts []postCandidate) float64 {
	cutoff := time.Now().Add(-reconciliationWindow)
	var windowed, negative int
	for _, p := range posts {
		if p.PublishedAt.Before(cutoff) {
			continue
		}
		windowed++
		if p.SentimentHint == string(store.SentimentNegativo) {
			negative++
		}
	}
	if windowed == 0 {
		return 0
	}
	return float64(negative) / float64(windowed)
}

func shouldRaiseIncident(posts []postCandidate, negativeShare float64, cfg config.SocialConfig) bool {
	return len(posts) >= cfg.IncidentMinPosts && negativeShare >= cfg.IncidentSentimentThreshold
}

func sortNewestFirst(objects []objectstore.ObjectInfo) {
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified > objects[j].LastModified
	})
}
