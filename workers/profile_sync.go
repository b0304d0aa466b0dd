// workers/profile_sync.go
package workers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"creator-indexer/models"
	"creator-indexer/services"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
)

// ProfileSource lists canonical profiles.
type ProfileSource interface {
	AllProfiles(ctx context.Context) ([]services.ChainProfile, error)
}

// ProfileSync mirrors creator profiles, including avatar and header images.
type ProfileSync struct {
	Source ProfileSource
	Store  services.Collection[models.Profile]
	Blobs  *services.BlobMaterializer
}

func NewProfileSync(source ProfileSource, store services.Collection[models.Profile], blobs *services.BlobMaterializer) *ProfileSync {
	return &ProfileSync{Source: source, Store: store, Blobs: blobs}
}

func (s *ProfileSync) Name() string { return "profiles" }

func (s *ProfileSync) Sync(ctx context.Context) (SyncStats, error) {
	profiles, err := s.Source.AllProfiles(ctx)
	if err != nil {
		return SyncStats{}, fmt.Errorf("failed to fetch canonical profiles: %w", err)
	}
	log.Printf("[SYNC:%s] 📥 Reconciling %d profile(s)…", s.Name(), len(profiles))

	e := entity[services.ChainProfile, models.Profile]{
		name:      s.Name(),
		store:     s.Store,
		key:       func(p services.ChainProfile) string { return p.Owner },
		recordKey: func(r *models.Profile) string { return r.Owner },
		apply:     s.apply,
		prune:     true,
	}
	return e.reconcile(ctx, profiles)
}

func (s *ProfileSync) apply(ctx context.Context, p services.ChainProfile, rec *models.Profile) (bool, []services.File) {
	changed := setString(&rec.Owner, p.Owner)
	changed = setString(&rec.ChainID, p.ChainID) || changed
	changed = setString(&rec.Name, p.Name) || changed
	changed = setString(&rec.Bio, p.Bio) || changed

	links := knownSocials(p.Socials)
	for network, dst := range rec.Socials() {
		changed = setString(dst, links[network]) || changed
	}

	avatar, header := services.Deref(p.AvatarHash), services.Deref(p.HeaderHash)
	changed = clearAttachment(rec, models.SlotAvatar, avatar) || changed
	changed = clearAttachment(rec, models.SlotHeader, header) || changed

	var files []services.File
	if s.Blobs != nil {
		files = appendFile(files, s.Blobs.Materialize(ctx, rec, models.SlotAvatar, avatar))
		files = appendFile(files, s.Blobs.Materialize(ctx, rec, models.SlotHeader, header))
	}
	return changed, files
}

var socialAliases = map[string]string{
	"x":         models.SocialTwitter,
	"twitter":   models.SocialTwitter,
	"instagram": models.SocialInstagram,
	"youtube":   models.SocialYouTube,
	"tiktok":    models.SocialTikTok,
	"twitch":    models.SocialTwitch,
	"discord":   models.SocialDiscord,
	"telegram":  models.SocialTelegram,
	"github":    models.SocialGitHub,
	"website":   models.SocialWebsite,
	"site":      models.SocialWebsite,
	"web":       models.SocialWebsite,
}

// knownSocials maps canonical links onto known networks. Unknown networks
// are dropped; for repeated networks the last link wins, matching how the
// contract overwrites a link by name.
func knownSocials(links []services.ChainSocialLink) map[string]string {
	fold := cases.Fold()
	out := make(map[string]string, len(links))
	for _, l := range links {
		network, ok := socialAliases[strings.TrimSpace(fold.String(unidecode.Unidecode(l.Name)))]
		if !ok {
			continue
		}
		out[network] = strings.TrimSpace(l.URL)
	}
	return out
}
