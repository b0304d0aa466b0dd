package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	blobs map[string][]byte
	calls []string
	err   error
}

func (f *fakeFetcher) DataBlob(ctx context.Context, hash string) ([]byte, error) {
	f.calls = append(f.calls, hash)
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.blobs[hash]
	if !ok {
		return nil, &QueryError{Reason: ReasonApplication, Messages: []string{"not found"}}
	}
	return data, nil
}

// slotRecord is a minimal Attachable with a single slot.
type slotRecord struct {
	url, hash string
}

func (r *slotRecord) Attachment(string) (string, string) { return r.url, r.hash }
func (r *slotRecord) SetAttachment(_, url, hash string)  { r.url, r.hash = url, hash }

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000")

func TestMaterializeSkipsWhenHashMatchesAndAttachmentExists(t *testing.T) {
	f := &fakeFetcher{blobs: map[string][]byte{"h1": pngBytes}}
	m := NewBlobMaterializer(f)

	file := m.Materialize(context.Background(), &slotRecord{url: "https://cdn/x.png", hash: "h1"}, "avatar", "h1")
	assert.Nil(t, file)
	assert.Empty(t, f.calls)
}

func TestMaterializeFetchesWhenAttachmentMissing(t *testing.T) {
	f := &fakeFetcher{blobs: map[string][]byte{"h1": pngBytes}}
	m := NewBlobMaterializer(f)

	file := m.Materialize(context.Background(), &slotRecord{hash: "h1"}, "avatar", "h1")
	require.NotNil(t, file)
	assert.Equal(t, []string{"h1"}, f.calls)
	assert.Equal(t, "avatar", file.Slot)
	assert.Equal(t, "h1", file.Hash)
	assert.Equal(t, "image/png", file.ContentType)
	assert.Equal(t, "h1.png", file.Name)
}

func TestMaterializeFetchesWhenHashChanged(t *testing.T) {
	f := &fakeFetcher{blobs: map[string][]byte{"h2": pngBytes}}
	m := NewBlobMaterializer(f)

	file := m.Materialize(context.Background(), &slotRecord{url: "https://cdn/h1.png", hash: "h1"}, "avatar", "h2")
	require.NotNil(t, file)
	assert.Equal(t, []string{"h2"}, f.calls)
}

func TestMaterializeNoCanonicalHash(t *testing.T) {
	f := &fakeFetcher{}
	m := NewBlobMaterializer(f)

	assert.Nil(t, m.Materialize(context.Background(), &slotRecord{}, "avatar", ""))
	assert.Empty(t, f.calls)
}

func TestMaterializeFetchFailureReturnsNil(t *testing.T) {
	f := &fakeFetcher{err: errors.New("node down")}
	m := NewBlobMaterializer(f)
	rec := &slotRecord{}

	assert.Nil(t, m.Materialize(context.Background(), rec, "avatar", "h1"))
	assert.Len(t, f.calls, 1)
	assert.Empty(t, rec.hash, "stored hash must stay stale so the next pass retries")
}

func TestMaterializeEmptyBlobReturnsNil(t *testing.T) {
	f := &fakeFetcher{blobs: map[string][]byte{"h1": {}}}
	m := NewBlobMaterializer(f)

	assert.Nil(t, m.Materialize(context.Background(), &slotRecord{}, "avatar", "h1"))
}
