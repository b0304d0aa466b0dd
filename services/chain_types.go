// services/chain_types.go
package services

import (
	"encoding/json"
	"fmt"
)

// Canonical entities as rendered by the application's GraphQL service.

type ChainSocialLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type ChainProfile struct {
	Owner      string            `json:"owner"`
	ChainID    string            `json:"chainId"`
	Name       string            `json:"name"`
	Bio        string            `json:"bio"`
	Socials    []ChainSocialLink `json:"socials"`
	AvatarHash *string           `json:"avatarHash"`
	HeaderHash *string           `json:"headerHash"`
}

type ChainDonation struct {
	Timestamp   int64   `json:"timestamp"`
	FromOwner   string  `json:"fromOwner"`
	FromChainID string  `json:"fromChainId"`
	ToOwner     string  `json:"toOwner"`
	ToChainID   string  `json:"toChainId"`
	Amount      string  `json:"amount"`
	Message     *string `json:"message"`
}

type ChainKeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ChainOrderFormField struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	FieldType string `json:"fieldType"`
	Required  bool   `json:"required"`
}

type ChainProduct struct {
	ID            string                `json:"id"`
	Author        string                `json:"author"`
	AuthorChainID string                `json:"authorChainId"`
	PublicData    []ChainKeyValue       `json:"publicData"`
	Price         string                `json:"price"`
	OrderForm     []ChainOrderFormField `json:"orderForm"`
	CreatedAt     int64                 `json:"createdAt"`
}

type ChainSubscriptionOffer struct {
	Author      string  `json:"author"`
	Price       string  `json:"price"`
	Description *string `json:"description"`
}

// blobBytes decodes the node's rendering of Vec<u8>: a JSON array of integers.
type blobBytes []byte

func (b *blobBytes) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("blob byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
