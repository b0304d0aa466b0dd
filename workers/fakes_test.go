package workers

import (
	"context"
	"sync"
	"sync/atomic"

	"creator-indexer/services"
)

// fakeChain serves canonical state from memory and counts blob fetches.
type fakeChain struct {
	mu        sync.Mutex
	profiles  []services.ChainProfile
	donations []services.ChainDonation
	products  []services.ChainProduct
	offers    []services.ChainSubscriptionOffer
	blobs     map[string][]byte
	blobCalls int
	err       error
	blobErr   error
}

func newFakeChain() *fakeChain {
	return &fakeChain{blobs: make(map[string][]byte)}
}

func (f *fakeChain) AllProfiles(context.Context) ([]services.ChainProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]services.ChainProfile(nil), f.profiles...), f.err
}

func (f *fakeChain) AllDonations(context.Context) ([]services.ChainDonation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]services.ChainDonation(nil), f.donations...), f.err
}

func (f *fakeChain) AllProducts(context.Context) ([]services.ChainProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]services.ChainProduct(nil), f.products...), f.err
}

func (f *fakeChain) AllSubscriptionOffers(context.Context) ([]services.ChainSubscriptionOffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]services.ChainSubscriptionOffer(nil), f.offers...), f.err
}

func (f *fakeChain) DataBlob(_ context.Context, hash string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobCalls++
	if f.blobErr != nil {
		return nil, f.blobErr
	}
	data, ok := f.blobs[hash]
	if !ok {
		return nil, &services.QueryError{Reason: services.ReasonApplication, Messages: []string{"blob not found"}}
	}
	return data, nil
}

func (f *fakeChain) BlobCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blobCalls
}

// countingTrigger records Trigger calls.
type countingTrigger struct {
	n atomic.Int64
}

func (c *countingTrigger) Trigger()     { c.n.Add(1) }
func (c *countingTrigger) Count() int64 { return c.n.Load() }

func strPtr(s string) *string { return &s }

var pngBlob = []byte("\x89PNG\r\n\x1a\n0000")
