// workers/product_sync.go
package workers

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"

	"creator-indexer/models"
	"creator-indexer/services"
	"creator-indexer/utils"

	"github.com/gosimple/slug"
)

// ProductSource lists canonical products.
type ProductSource interface {
	AllProducts(ctx context.Context) ([]services.ChainProduct, error)
}

// ProductSync mirrors marketplace products. Non-atomic create flows upstream
// can leave several rows for one product; those are collapsed to the newest.
type ProductSync struct {
	Source ProductSource
	Store  services.Collection[models.Product]
	Blobs  *services.BlobMaterializer
}

func NewProductSync(source ProductSource, store services.Collection[models.Product], blobs *services.BlobMaterializer) *ProductSync {
	return &ProductSync{Source: source, Store: store, Blobs: blobs}
}

func (s *ProductSync) Name() string { return "products" }

func (s *ProductSync) Sync(ctx context.Context) (SyncStats, error) {
	products, err := s.Source.AllProducts(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("failed to fetch canonical products: %w", err)
	}
	log.Printf("[SYNC:%s] 📥 Reconciling %d product(s)…", s.Name(), len(products))

	e := entity[services.ChainProduct, models.Product]{
		name:      s.Name(),
		store:     s.Store,
		key:       func(p services.ChainProduct) string { return p.ID },
		recordKey: func(r *models.Product) string { return r.ProductID },
		apply:     s.apply,
		prune:     true,
		dedupe:    s.dedupe,
	}
	return e.reconcile(ctx, products)
}

// dedupe keeps the most recently created record and deletes the rest.
func (s *ProductSync) dedupe(ctx context.Context, productID string, recs []*models.Product, stats *SyncStats) *models.Product {
	keep := recs[0]
	for _, r := range recs[1:] {
		if !r.CreatedAt.Before(keep.CreatedAt) {
			keep = r
		}
	}
	log.Printf("[SYNC:%s] 🧹 %d records share product_id=%q, keeping id=%s", s.Name(), len(recs), productID, keep.ID)
	for _, r := range recs {
		if r == keep {
			continue
		}
		if err := s.Store.Delete(ctx, r.ID); err != nil {
			stats.Failed++
			utils.RecordFailures.WithLabelValues(s.Name()).Inc()
			log.Printf("[SYNC:%s] ⚠️ Failed to delete duplicate id=%s: %v", s.Name(), r.ID, err)
			continue
		}
		stats.Deleted++
		utils.RecordWrites.WithLabelValues(s.Name(), "delete").Inc()
	}
	return keep
}

// Well-known public data keys, first match wins.
var (
	productNameKeys        = []string{"name", "title"}
	productDescriptionKeys = []string{"description"}
	productCategoryKeys    = []string{"category", "type"}
	productPreviewKeys     = []string{"image_preview_hash", "preview_hash"}
)

// publicFields projects schema-less public data onto well-known slots.
type publicFields struct {
	name, description, category, previewHash string
}

func projectPublicData(kvs []services.ChainKeyValue) publicFields {
	data := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		data[strings.ToLower(strings.TrimSpace(kv.Key))] = kv.Value
	}
	first := func(keys []string) string {
		for _, k := range keys {
			if v, ok := data[k]; ok {
				return v
			}
		}
		return ""
	}
	return publicFields{
		name:        first(productNameKeys),
		description: first(productDescriptionKeys),
		category:    first(productCategoryKeys),
		previewHash: first(productPreviewKeys),
	}
}

func orderForm(fields []services.ChainOrderFormField) []models.OrderFormField {
	out := make([]models.OrderFormField, 0, len(fields))
	for _, f := range fields {
		out = append(out, models.OrderFormField{
			Key:       f.Key,
			Label:     f.Label,
			FieldType: f.FieldType,
			Required:  f.Required,
		})
	}
	return out
}

func (s *ProductSync) apply(ctx context.Context, p services.ChainProduct, rec *models.Product) (bool, []services.File) {
	pub := projectPublicData(p.PublicData)

	changed := setString(&rec.ProductID, p.ID)
	changed = setString(&rec.Author, p.Author) || changed
	changed = setString(&rec.AuthorChainID, p.AuthorChainID) || changed
	changed = setString(&rec.Price, p.Price) || changed
	changed = setString(&rec.Name, pub.name) || changed
	changed = setString(&rec.Slug, slug.Make(pub.name)) || changed
	changed = setString(&rec.Description, pub.description) || changed
	changed = setString(&rec.Category, pub.category) || changed
	changed = setInt64(&rec.ChainCreatedAt, p.CreatedAt) || changed

	form := orderForm(p.OrderForm)
	if !slices.Equal(rec.OrderForm, form) {
		rec.OrderForm = form
		changed = true
	}

	changed = clearAttachment(rec, models.SlotPreview, pub.previewHash) || changed

	var files []services.File
	if s.Blobs != nil {
		files = appendFile(files, s.Blobs.Materialize(ctx, rec, models.SlotPreview, pub.previewHash))
	}
	return changed, files
}
