// workers/subscription_offer_sync.go
package workers

import (
	"context"
	"fmt"
	"log"

	"creator-indexer/models"
	"creator-indexer/services"
)

// SubscriptionOfferSource lists canonical subscription offers.
type SubscriptionOfferSource interface {
	AllSubscriptionOffers(ctx context.Context) ([]services.ChainSubscriptionOffer, error)
}

type SubscriptionOfferSync struct {
	Source SubscriptionOfferSource
	Store  services.Collection[models.SubscriptionOffer]
}

func NewSubscriptionOfferSync(source SubscriptionOfferSource, store services.Collection[models.SubscriptionOffer]) *SubscriptionOfferSync {
	return &SubscriptionOfferSync{Source: source, Store: store}
}

func (s *SubscriptionOfferSync) Name() string { return "subscription_offers" }

func (s *SubscriptionOfferSync) Sync(ctx context.Context) (SyncStats, error) {
	offers, err := s.Source.AllSubscriptionOffers(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("failed to fetch canonical subscription offers: %w", err)
	}
	log.Printf("[SYNC:%s] 📥 Reconciling %d offer(s)…", s.Name(), len(offers))

	e := entity[services.ChainSubscriptionOffer, models.SubscriptionOffer]{
		name:      s.Name(),
		store:     s.Store,
		key:       func(o services.ChainSubscriptionOffer) string { return o.Author },
		recordKey: func(r *models.SubscriptionOffer) string { return r.Author },
		apply: func(_ context.Context, o services.ChainSubscriptionOffer, rec *models.SubscriptionOffer) (bool, []services.File) {
			changed := setString(&rec.Author, o.Author)
			changed = setString(&rec.Price, o.Price) || changed
			changed = setString(&rec.Description, services.Deref(o.Description)) || changed
			return changed, nil
		},
		prune: true,
	}
	return e.reconcile(ctx, offers)
}
