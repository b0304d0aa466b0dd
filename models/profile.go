// models/profile.go
package models

// Attachment slots on Profile.
const (
	SlotAvatar = "avatar"
	SlotHeader = "header"
)

// Social networks a profile link can be mirrored into. Anything else is dropped.
const (
	SocialTwitter   = "twitter"
	SocialInstagram = "instagram"
	SocialYouTube   = "youtube"
	SocialTikTok    = "tiktok"
	SocialTwitch    = "twitch"
	SocialDiscord   = "discord"
	SocialTelegram  = "telegram"
	SocialGitHub    = "github"
	SocialWebsite   = "website"
)

// Profile mirrors a creator profile read from chain.
// Table name: profiles
type Profile struct {
	Base
	Owner   string `gorm:"size:128;not null;uniqueIndex" json:"owner"` // natural key
	ChainID string `gorm:"size:128;index" json:"chain_id"`
	Name    string `gorm:"not null" json:"name"`
	Bio     string `json:"bio"`

	Twitter   string `json:"twitter,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	YouTube   string `gorm:"column:youtube" json:"youtube,omitempty"`
	TikTok    string `gorm:"column:tiktok" json:"tiktok,omitempty"`
	Twitch    string `json:"twitch,omitempty"`
	Discord   string `json:"discord,omitempty"`
	Telegram  string `json:"telegram,omitempty"`
	GitHub    string `gorm:"column:github" json:"github,omitempty"`
	Website   string `json:"website,omitempty"`

	// 🖼️ Attachments (URL + hash of the blob the URL was built from)
	AvatarURL  string `json:"avatar_url,omitempty"`
	AvatarHash string `gorm:"size:128" json:"avatar_hash,omitempty"`
	HeaderURL  string `json:"header_url,omitempty"`
	HeaderHash string `gorm:"size:128" json:"header_hash,omitempty"`
}

// Socials returns the link field for each known network.
func (p *Profile) Socials() map[string]*string {
	return map[string]*string{
		SocialTwitter:   &p.Twitter,
		SocialInstagram: &p.Instagram,
		SocialYouTube:   &p.YouTube,
		SocialTikTok:    &p.TikTok,
		SocialTwitch:    &p.Twitch,
		SocialDiscord:   &p.Discord,
		SocialTelegram:  &p.Telegram,
		SocialGitHub:    &p.GitHub,
		SocialWebsite:   &p.Website,
	}
}

func (p *Profile) Attachment(slot string) (url, hash string) {
	switch slot {
	case SlotAvatar:
		return p.AvatarURL, p.AvatarHash
	case SlotHeader:
		return p.HeaderURL, p.HeaderHash
	}
	return "", ""
}

func (p *Profile) SetAttachment(slot, url, hash string) {
	switch slot {
	case SlotAvatar:
		p.AvatarURL, p.AvatarHash = url, hash
	case SlotHeader:
		p.HeaderURL, p.HeaderHash = url, hash
	}
}
