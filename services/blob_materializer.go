// services/blob_materializer.go
package services

import (
	"context"
	"log"

	"creator-indexer/utils"

	"github.com/gabriel-vasile/mimetype"
)

// BlobFetcher reads content-addressed payloads from chain.
type BlobFetcher interface {
	DataBlob(ctx context.Context, hash string) ([]byte, error)
}

// BlobMaterializer turns blob hash references into file attachments, fetching
// only when the stored hash is stale or the attachment is missing.
type BlobMaterializer struct {
	Fetcher BlobFetcher
}

func NewBlobMaterializer(fetcher BlobFetcher) *BlobMaterializer {
	return &BlobMaterializer{Fetcher: fetcher}
}

// Materialize returns the file to bundle into the record's next write, or nil
// when the slot is current or the fetch failed.
func (m *BlobMaterializer) Materialize(ctx context.Context, rec Attachable, slot, canonicalHash string) *File {
	if canonicalHash == "" {
		return nil
	}
	url, stored := rec.Attachment(slot)
	if stored == canonicalHash && url != "" {
		return nil
	}

	data, err := m.Fetcher.DataBlob(ctx, canonicalHash)
	if err != nil {
		utils.BlobFetches.WithLabelValues("error").Inc()
		log.Printf("[BLOB] ⚠️ Failed to fetch %s blob %s, will retry next pass: %v", slot, canonicalHash, err)
		return nil
	}
	if len(data) == 0 {
		utils.BlobFetches.WithLabelValues("empty").Inc()
		log.Printf("[BLOB] ⚠️ Blob %s for %s is empty, skipping", canonicalHash, slot)
		return nil
	}
	utils.BlobFetches.WithLabelValues("ok").Inc()

	mt := mimetype.Detect(data)
	log.Printf("[BLOB] 📥 Fetched %s blob %s (%d bytes, %s)", slot, canonicalHash, len(data), mt.String())
	return &File{
		Slot:        slot,
		Hash:        canonicalHash,
		Name:        canonicalHash + mt.Extension(),
		ContentType: mt.String(),
		Data:        data,
	}
}
