// models/donation.go
package models

import "fmt"

// Donation is an append-only mirror of a donation recorded on chain.
// The chain exposes no stable ID, so the natural key is the
// (from, to, timestamp, amount) tuple.
type Donation struct {
	Base
	FromOwner   string `gorm:"size:128;not null;uniqueIndex:idx_donation_key,priority:1;index" json:"from_owner"`
	FromChainID string `gorm:"size:128" json:"from_chain_id"`
	ToOwner     string `gorm:"size:128;not null;uniqueIndex:idx_donation_key,priority:2;index" json:"to_owner"`
	ToChainID   string `gorm:"size:128" json:"to_chain_id"`
	Timestamp   int64  `gorm:"not null;uniqueIndex:idx_donation_key,priority:3" json:"timestamp"` // microseconds
	Amount      string `gorm:"size:64;not null;uniqueIndex:idx_donation_key,priority:4" json:"amount"`
	Message     string `json:"message,omitempty"`
}

// DonationKey builds the natural key shared by canonical and mirrored donations.
func DonationKey(from, to string, timestamp int64, amount string) string {
	return fmt.Sprintf("%s|%s|%d|%s", from, to, timestamp, amount)
}

func (d *Donation) Key() string {
	return DonationKey(d.FromOwner, d.ToOwner, d.Timestamp, d.Amount)
}
