// services/store.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Record is implemented by every mirrored model through models.Base.
type Record interface {
	RecordID() string
	SetRecordID(id string)
	RecordCreatedAt() time.Time
	SetRecordCreatedAt(t time.Time)
	Touch(t time.Time)
}

// Attachable records expose named file slots, each holding the attachment URL
// and the hash of the blob it was built from.
type Attachable interface {
	Attachment(slot string) (url, hash string)
	SetAttachment(slot, url, hash string)
}

// File is a blob payload bundled into a Create or Update call for one slot.
type File struct {
	Slot        string
	Hash        string
	Name        string
	ContentType string
	Data        []byte
}

// ObjectStorage stores attachment payloads and returns their public URL.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Collection is the document-store view of one mirrored record type.
// The engine is its only writer.
type Collection[T any] interface {
	Name() string
	List(ctx context.Context) ([]*T, error)
	Create(ctx context.Context, rec *T, files ...File) error
	Update(ctx context.Context, rec *T, files ...File) error
	Delete(ctx context.Context, id string) error
}

// DefaultCallTimeout bounds one store statement or one upload when the
// collection has no timeout of its own.
const DefaultCallTimeout = 15 * time.Second

// callContext derives the per-call context. A timed-out call fails like any
// other store error and is retried on the next pass.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// ObjectKey is the content-addressed storage key for a slot payload.
func ObjectKey(collection string, f File) string {
	return fmt.Sprintf("%s/%s/%s", collection, f.Slot, f.Name)
}

// attachFiles uploads each file and points the record's slot at it. A failed
// upload leaves that slot untouched so the hash mismatch retries next pass.
func attachFiles(ctx context.Context, storage ObjectStorage, timeout time.Duration, collection string, rec any, files []File) {
	if len(files) == 0 {
		return
	}
	att, ok := rec.(Attachable)
	if !ok {
		log.Printf("[STORE] ⚠️ %s records have no attachment slots, dropping %d file(s)", collection, len(files))
		return
	}
	for _, f := range files {
		if storage == nil {
			log.Printf("[STORE] ⚠️ No object storage configured, skipping %s/%s", collection, f.Slot)
			continue
		}
		putCtx, cancel := callContext(ctx, timeout)
		url, err := storage.Put(putCtx, ObjectKey(collection, f), f.Data, f.ContentType)
		cancel()
		if err != nil {
			log.Printf("[STORE] ❌ Failed to upload %s attachment (hash=%s) for %s: %v", f.Slot, f.Hash, collection, err)
			continue
		}
		att.SetAttachment(f.Slot, url, f.Hash)
	}
}
