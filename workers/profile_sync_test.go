package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"creator-indexer/models"
	"creator-indexer/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileFixture() (*fakeChain, *services.MemoryCollection[models.Profile], *services.MemoryObjectStorage, *ProfileSync) {
	chain := newFakeChain()
	objects := services.NewMemoryObjectStorage("https://cdn.test")
	store := services.NewMemoryCollection[models.Profile](objects, "profiles")
	return chain, store, objects, NewProfileSync(chain, store, services.NewBlobMaterializer(chain))
}

func TestProfileSyncFetchesAvatarOnce(t *testing.T) {
	ctx := context.Background()
	chain, store, objects, sync := newProfileFixture()
	chain.blobs["h1"] = pngBlob
	chain.profiles = []services.ChainProfile{{Owner: "0xabc", ChainID: "c1", Name: "Ann", AvatarHash: strPtr("h1")}}

	stats, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, chain.BlobCalls())
	assert.Equal(t, 1, objects.Puts())

	listed, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "h1", listed[0].AvatarHash)
	assert.Equal(t, "https://cdn.test/profiles/avatar/h1.png", listed[0].AvatarURL)

	writes := store.TotalWrites()
	stats, err = sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, SyncStats{Unchanged: 1}, stats)
	assert.Equal(t, 1, chain.BlobCalls(), "unchanged avatar must not be fetched again")
	assert.Equal(t, writes, store.TotalWrites())
}

func TestProfileSyncReplacesChangedAvatar(t *testing.T) {
	ctx := context.Background()
	chain, store, _, sync := newProfileFixture()
	chain.blobs["h1"] = pngBlob
	chain.blobs["h2"] = append([]byte(nil), pngBlob...)
	chain.profiles = []services.ChainProfile{{Owner: "0xabc", Name: "Ann", AvatarHash: strPtr("h1")}}
	_, err := sync.Sync(ctx)
	require.NoError(t, err)

	chain.profiles[0].AvatarHash = strPtr("h2")
	stats, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 2, chain.BlobCalls())

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "h2", listed[0].AvatarHash)
}

func TestProfileSyncRetriesFailedBlobFetch(t *testing.T) {
	ctx := context.Background()
	chain, store, _, sync := newProfileFixture()
	chain.blobErr = errors.New("node busy")
	chain.profiles = []services.ChainProfile{{Owner: "0xabc", Name: "Ann", AvatarHash: strPtr("h1")}}

	stats, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created, "record is mirrored without its avatar")

	chain.blobErr = nil
	chain.blobs["h1"] = pngBlob
	stats, err = sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "h1", listed[0].AvatarHash)
}

func TestProfileSyncMapsKnownSocialsOnly(t *testing.T) {
	ctx := context.Background()
	chain, store, _, sync := newProfileFixture()
	chain.profiles = []services.ChainProfile{{
		Owner: "0xabc",
		Name:  "Ann",
		Socials: []services.ChainSocialLink{
			{Name: "X", URL: "https://x.com/ann"},
			{Name: "GitHub", URL: " https://github.com/ann "},
			{Name: "Myspace", URL: "https://myspace.com/ann"},
			{Name: "site", URL: "https://ann.dev"},
			{Name: "Télégram", URL: "https://t.me/ann"},
		},
	}}

	_, err := sync.Sync(ctx)
	require.NoError(t, err)
	listed, err := store.List(ctx)
	require.NoError(t, err)
	p := listed[0]
	assert.Equal(t, "https://x.com/ann", p.Twitter)
	assert.Equal(t, "https://github.com/ann", p.GitHub)
	assert.Equal(t, "https://ann.dev", p.Website)
	assert.Equal(t, "https://t.me/ann", p.Telegram)
	assert.Empty(t, p.Instagram)

	// Removing a link clears it.
	chain.profiles[0].Socials = chain.profiles[0].Socials[:1]
	stats, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	listed, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed[0].GitHub)
}

func TestProfileSyncPrunesRemovedProfiles(t *testing.T) {
	ctx := context.Background()
	chain, store, _, sync := newProfileFixture()
	chain.profiles = []services.ChainProfile{{Owner: "a", Name: "A"}, {Owner: "b", Name: "B"}}
	_, err := sync.Sync(ctx)
	require.NoError(t, err)

	chain.profiles = chain.profiles[:1]
	stats, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.Equal(t, 1, store.Len())
}

func TestProfileSyncWithoutObjectStorage(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain()
	store := services.NewMemoryCollection[models.Profile](nil, "profiles")
	sync := NewProfileSync(chain, store, nil)
	chain.profiles = []services.ChainProfile{{Owner: "a", Name: "A", AvatarHash: strPtr("h1")}}

	_, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, chain.BlobCalls())
	assert.Equal(t, 1, store.Len())
}

// stalledStorage never finishes an upload on its own.
type stalledStorage struct{}

func (stalledStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestProfileSyncPassSurvivesStalledUpload(t *testing.T) {
	chain := newFakeChain()
	chain.blobs["h1"] = pngBlob
	chain.profiles = []services.ChainProfile{
		{Owner: "a", Name: "A", AvatarHash: strPtr("h1")},
		{Owner: "b", Name: "B"},
	}
	store := services.NewMemoryCollection[models.Profile](stalledStorage{}, "profiles")
	store.Timeout = 20 * time.Millisecond
	sync := NewProfileSync(chain, store, services.NewBlobMaterializer(chain))

	done := make(chan SyncStats, 1)
	go func() {
		stats, err := sync.Sync(context.Background())
		assert.NoError(t, err)
		done <- stats
	}()
	select {
	case stats := <-done:
		assert.Equal(t, 2, stats.Created)
	case <-time.After(5 * time.Second):
		t.Fatal("sync pass blocked on a stalled upload")
	}

	listed, err := store.List(context.Background())
	require.NoError(t, err)
	for _, p := range listed {
		assert.Empty(t, p.AvatarHash, "slot stays stale so the next pass retries")
	}
}

func TestProfileSyncClearsRemovedAvatar(t *testing.T) {
	ctx := context.Background()
	chain, store, _, sync := newProfileFixture()
	chain.blobs["h1"] = pngBlob
	chain.profiles = []services.ChainProfile{{Owner: "0xabc", Name: "Ann", AvatarHash: strPtr("h1")}}
	_, err := sync.Sync(ctx)
	require.NoError(t, err)

	chain.profiles[0].AvatarHash = nil
	stats, err := sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	listed, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, listed[0].AvatarHash)
	assert.Empty(t, listed[0].AvatarURL)

	stats, err = sync.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Writes())
}
