// models/product.go
package models

// SlotPreview is the product preview image attachment.
const SlotPreview = "preview"

// OrderFormField is one input the buyer fills in when ordering.
type OrderFormField struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	FieldType string `json:"field_type"` // text | email | textarea | select ...
	Required  bool   `json:"required"`
}

// Product mirrors a marketplace product. ProductID is deliberately not unique:
// duplicate rows are collapsed by the product synchronizer.
type Product struct {
	Base
	ProductID      string           `gorm:"size:128;not null;index" json:"product_id"`
	Author         string           `gorm:"size:128;not null;index" json:"author"`
	AuthorChainID  string           `gorm:"size:128;index" json:"author_chain_id"`
	Price          string           `gorm:"size:64;not null" json:"price"`
	Name           string           `json:"name"`
	Slug           string           `gorm:"index" json:"slug"`
	Description    string           `json:"description"`
	Category       string           `gorm:"index" json:"category"`
	OrderForm      []OrderFormField `gorm:"serializer:json" json:"order_form"`
	ChainCreatedAt int64            `json:"chain_created_at"`

	PreviewURL  string `json:"preview_url,omitempty"`
	PreviewHash string `gorm:"size:128" json:"preview_hash,omitempty"`
}

func (p *Product) Attachment(slot string) (url, hash string) {
	if slot == SlotPreview {
		return p.PreviewURL, p.PreviewHash
	}
	return "", ""
}

func (p *Product) SetAttachment(slot, url, hash string) {
	if slot == SlotPreview {
		p.PreviewURL, p.PreviewHash = url, hash
	}
}
