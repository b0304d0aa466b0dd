// workers/donation_sync.go
package workers

import (
	"context"
	"fmt"
	"log"

	"creator-indexer/models"
	"creator-indexer/services"
)

// DonationSource lists canonical donations.
type DonationSource interface {
	AllDonations(ctx context.Context) ([]services.ChainDonation, error)
}

// DonationSync mirrors donations as an append-only log: records are created
// or corrected but never pruned, since a donation missing from one fetch is
// treated as a transient read.
type DonationSync struct {
	Source DonationSource
	Store  services.Collection[models.Donation]
}

func NewDonationSync(source DonationSource, store services.Collection[models.Donation]) *DonationSync {
	return &DonationSync{Source: source, Store: store}
}

func (s *DonationSync) Name() string { return "donations" }

func (s *DonationSync) Sync(ctx context.Context) (SyncStats, error) {
	donations, err := s.Source.AllDonations(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("failed to fetch canonical donations: %w", err)
	}
	log.Printf("[SYNC:%s] 📥 Reconciling %d donation(s)…", s.Name(), len(donations))

	e := entity[services.ChainDonation, models.Donation]{
		name:  s.Name(),
		store: s.Store,
		key: func(d services.ChainDonation) string {
			return models.DonationKey(d.FromOwner, d.ToOwner, d.Timestamp, d.Amount)
		},
		recordKey: func(r *models.Donation) string { return r.Key() },
		apply:     applyDonation,
		prune:     false,
	}
	return e.reconcile(ctx, donations)
}

func applyDonation(_ context.Context, d services.ChainDonation, rec *models.Donation) (bool, []services.File) {
	changed := setString(&rec.FromOwner, d.FromOwner)
	changed = setString(&rec.ToOwner, d.ToOwner) || changed
	changed = setInt64(&rec.Timestamp, d.Timestamp) || changed
	changed = setString(&rec.Amount, d.Amount) || changed
	changed = setString(&rec.FromChainID, d.FromChainID) || changed
	changed = setString(&rec.ToChainID, d.ToChainID) || changed
	changed = setString(&rec.Message, services.Deref(d.Message)) || changed
	return changed, nil
}
