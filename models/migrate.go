// models/migrate.go
package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every mirrored table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Profile{},
		&Donation{},
		&Product{},
		&SubscriptionOffer{},
	)
}
