// workers/reconcile.go
package workers

import (
	"context"
	"fmt"
	"log"

	"creator-indexer/services"
	"creator-indexer/utils"
)

// Synchronizer reconciles one canonical entity type into the mirrored store.
type Synchronizer interface {
	Name() string
	Sync(ctx context.Context) (SyncStats, error)
}

// SyncStats summarizes one synchronizer run.
type SyncStats struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Deleted   int `json:"deleted"`
	Failed    int `json:"failed"`
}

func (s SyncStats) Writes() int { return s.Created + s.Updated + s.Deleted }

func (s SyncStats) String() string {
	return fmt.Sprintf("%d created, %d updated, %d unchanged, %d deleted, %d failed",
		s.Created, s.Updated, s.Unchanged, s.Deleted, s.Failed)
}

// entity describes how canonical items of type C map onto mirrored records R.
type entity[C any, R any] struct {
	name      string
	store     services.Collection[R]
	key       func(C) string
	recordKey func(*R) string
	// apply copies canonical state into rec, reporting tracked-field changes and
	// any attachment files to bundle into the write.
	apply func(ctx context.Context, c C, rec *R) (changed bool, files []services.File)
	prune bool
	// dedupe, when set, collapses several records sharing one key and returns
	// the survivor.
	dedupe func(ctx context.Context, key string, recs []*R, stats *SyncStats) *R
}

func (e entity[C, R]) tag() string { return "[SYNC:" + e.name + "]" }

// reconcile runs pull, upsert, prune against an already fetched canonical set.
func (e entity[C, R]) reconcile(ctx context.Context, canonical []C) (SyncStats, error) {
	var stats SyncStats

	existing, err := e.store.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list mirrored %s: %w", e.name, err)
	}
	index := make(map[string][]*R, len(existing))
	for _, rec := range existing {
		k := e.recordKey(rec)
		index[k] = append(index[k], rec)
	}

	seen := make(map[string]struct{}, len(canonical))
	for _, item := range canonical {
		k := e.key(item)
		seen[k] = struct{}{}

		var rec *R
		switch recs := index[k]; {
		case len(recs) > 1 && e.dedupe != nil:
			rec = e.dedupe(ctx, k, recs, &stats)
			index[k] = []*R{rec}
		case len(recs) > 0:
			rec = recs[0]
		}

		if rec == nil {
			rec = new(R)
			_, files := e.apply(ctx, item, rec)
			if err := e.store.Create(ctx, rec, files...); err != nil {
				stats.Failed++
				utils.RecordFailures.WithLabelValues(e.name).Inc()
				log.Printf("%s ⚠️ Failed to create key=%q: %v", e.tag(), k, err)
				continue
			}
			index[k] = []*R{rec}
			stats.Created++
			utils.RecordWrites.WithLabelValues(e.name, "create").Inc()
			continue
		}

		changed, files := e.apply(ctx, item, rec)
		if !changed && len(files) == 0 {
			stats.Unchanged++
			continue
		}
		if err := e.store.Update(ctx, rec, files...); err != nil {
			stats.Failed++
			utils.RecordFailures.WithLabelValues(e.name).Inc()
			log.Printf("%s ⚠️ Failed to update key=%q: %v", e.tag(), k, err)
			continue
		}
		stats.Updated++
		utils.RecordWrites.WithLabelValues(e.name, "update").Inc()
	}

	if e.prune {
		if err := e.pruneOrphans(ctx, seen, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// pruneOrphans deletes mirrored records whose key is absent from seen.
func (e entity[C, R]) pruneOrphans(ctx context.Context, seen map[string]struct{}, stats *SyncStats) error {
	mirrored, err := e.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list mirrored %s for pruning: %w", e.name, err)
	}
	for _, rec := range mirrored {
		k := e.recordKey(rec)
		if _, ok := seen[k]; ok {
			continue
		}
		id := recordID(rec)
		if err := e.store.Delete(ctx, id); err != nil {
			stats.Failed++
			utils.RecordFailures.WithLabelValues(e.name).Inc()
			log.Printf("%s ⚠️ Failed to prune orphan key=%q id=%s: %v", e.tag(), k, id, err)
			continue
		}
		stats.Deleted++
		utils.RecordWrites.WithLabelValues(e.name, "delete").Inc()
		log.Printf("%s 🗑️ Pruned orphan key=%q id=%s", e.tag(), k, id)
	}
	return nil
}

func recordID(rec any) string {
	if r, ok := rec.(services.Record); ok {
		return r.RecordID()
	}
	return ""
}

// setString assigns v to *dst and reports whether it changed.
func setString(dst *string, v string) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

func setInt64(dst *int64, v int64) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

// clearAttachment empties a slot whose canonical hash is gone and reports
// whether the record changed.
func clearAttachment(rec services.Attachable, slot, canonicalHash string) bool {
	if canonicalHash != "" {
		return false
	}
	if url, hash := rec.Attachment(slot); url == "" && hash == "" {
		return false
	}
	rec.SetAttachment(slot, "", "")
	return true
}

// appendFile adds f to files when the materializer produced one.
func appendFile(files []services.File, f *services.File) []services.File {
	if f == nil {
		return files
	}
	return append(files, *f)
}
