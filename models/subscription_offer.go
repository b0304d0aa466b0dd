// models/subscription_offer.go
package models

// SubscriptionOffer mirrors an author's content subscription price.
type SubscriptionOffer struct {
	Base
	Author      string `gorm:"size:128;not null;uniqueIndex" json:"author"`
	Price       string `gorm:"size:64;not null" json:"price"`
	Description string `json:"description"`
}
