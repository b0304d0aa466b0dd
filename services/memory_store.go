// services/memory_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryCollection is an in-process Collection used for dry runs and tests.
// Records are copied on the way in and out, so callers only change stored
// state through Create and Update.
type MemoryCollection[T any] struct {
	Storage ObjectStorage
	// Timeout bounds each attachment upload.
	Timeout time.Duration

	name string
	mu   sync.Mutex
	rows map[string]*T
	now  func() time.Time

	creates, updates, deletes int

	// FailWrites makes Create/Update/Delete fail for records it returns true for.
	FailWrites func(rec *T) bool
}

func NewMemoryCollection[T any](storage ObjectStorage, name string) *MemoryCollection[T] {
	return &MemoryCollection[T]{
		Storage: storage,
		Timeout: DefaultCallTimeout,
		name:    name,
		rows:    make(map[string]*T),
		now:     time.Now,
	}
}

var errWriteRejected = errors.New("write rejected")

func (c *MemoryCollection[T]) Name() string { return c.name }

func asRecord(v any) Record {
	rec, ok := v.(Record)
	if !ok {
		panic(fmt.Sprintf("%T does not implement services.Record", v))
	}
	return rec
}

func (c *MemoryCollection[T]) List(ctx context.Context) ([]*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*T, 0, len(c.rows))
	for _, row := range c.rows {
		cp := *row
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return asRecord(out[i]).RecordCreatedAt().Before(asRecord(out[j]).RecordCreatedAt())
	})
	return out, nil
}

func (c *MemoryCollection[T]) Create(ctx context.Context, rec *T, files ...File) error {
	if c.FailWrites != nil && c.FailWrites(rec) {
		return fmt.Errorf("failed to create %s record: %w", c.name, errWriteRejected)
	}
	attachFiles(ctx, c.Storage, c.Timeout, c.name, rec, files)
	r := asRecord(rec)
	if r.RecordID() == "" {
		r.SetRecordID(uuid.NewString())
	}
	if r.RecordCreatedAt().IsZero() {
		r.SetRecordCreatedAt(c.now())
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.rows[r.RecordID()]; exists {
		return fmt.Errorf("%s record %s already exists", c.name, r.RecordID())
	}
	cp := *rec
	c.rows[r.RecordID()] = &cp
	c.creates++
	return nil
}

func (c *MemoryCollection[T]) Update(ctx context.Context, rec *T, files ...File) error {
	if c.FailWrites != nil && c.FailWrites(rec) {
		return fmt.Errorf("failed to update %s record: %w", c.name, errWriteRejected)
	}
	attachFiles(ctx, c.Storage, c.Timeout, c.name, rec, files)
	r := asRecord(rec)
	r.Touch(c.now())

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.rows[r.RecordID()]; !exists {
		return fmt.Errorf("%s record %s not found", c.name, r.RecordID())
	}
	cp := *rec
	c.rows[r.RecordID()] = &cp
	c.updates++
	return nil
}

func (c *MemoryCollection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, exists := c.rows[id]
	if !exists {
		return fmt.Errorf("%s record %s not found", c.name, id)
	}
	if c.FailWrites != nil && c.FailWrites(row) {
		return fmt.Errorf("failed to delete %s record: %w", c.name, errWriteRejected)
	}
	delete(c.rows, id)
	c.deletes++
	return nil
}

// Seed inserts records as-is, bypassing write counters.
func (c *MemoryCollection[T]) Seed(recs ...*T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range recs {
		r := asRecord(rec)
		if r.RecordID() == "" {
			r.SetRecordID(uuid.NewString())
		}
		if r.RecordCreatedAt().IsZero() {
			r.SetRecordCreatedAt(c.now())
		}
		cp := *rec
		c.rows[r.RecordID()] = &cp
	}
}

// Writes returns how many creates, updates and deletes succeeded.
func (c *MemoryCollection[T]) Writes() (creates, updates, deletes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creates, c.updates, c.deletes
}

// TotalWrites is the sum of Writes.
func (c *MemoryCollection[T]) TotalWrites() int {
	cr, up, del := c.Writes()
	return cr + up + del
}

func (c *MemoryCollection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// MemoryObjectStorage keeps attachment payloads in memory.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string][]byte
	puts    int

	// Fail makes every Put return this error when set.
	Fail error
}

func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	return &MemoryObjectStorage{BaseURL: baseURL, objects: make(map[string][]byte)}
}

func (s *MemoryObjectStorage) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return "", s.Fail
	}
	s.objects[key] = append([]byte(nil), data...)
	s.puts++
	return fmt.Sprintf("%s/%s", s.BaseURL, key), nil
}

// Puts returns how many uploads succeeded.
func (s *MemoryObjectStorage) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func (s *MemoryObjectStorage) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}
