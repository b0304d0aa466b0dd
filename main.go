package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creator-indexer/handlers"
	"creator-indexer/models"
	"creator-indexer/services"
	"creator-indexer/utils"
	"creator-indexer/workers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// stores groups the mirrored collections the synchronizers write to.
type stores struct {
	profiles      services.Collection[models.Profile]
	donations     services.Collection[models.Donation]
	products      services.Collection[models.Product]
	subscriptions services.Collection[models.SubscriptionOffer]
	objects       services.ObjectStorage
}

func main() {
	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open document store: ", err)
	}

	chain, err := services.NewChainClient(cfg.NodeURL, cfg.ChainID, cfg.ApplicationID, cfg.QueryTimeout)
	if err != nil {
		log.Fatal("failed to create chain client: ", err)
	}
	var blobs *services.BlobMaterializer
	if st.objects != nil {
		blobs = services.NewBlobMaterializer(chain)
	}

	coordinator := workers.NewCoordinator(cfg.SettleDelay,
		workers.NewProfileSync(chain, st.profiles, blobs),
		workers.NewDonationSync(chain, st.donations),
		workers.NewProductSync(chain, st.products, blobs),
		workers.NewSubscriptionOfferSync(chain, st.subscriptions),
	)
	listener := workers.NewNotificationListener(cfg.NotificationURL, cfg.ChainID, cfg.ApplicationID, cfg.PollInterval, coordinator)

	coordinatorDone := make(chan struct{})
	go func() {
		defer close(coordinatorDone)
		coordinator.Run(ctx)
	}()
	// Initial backfill; notifications only cover changes from now on.
	coordinator.Trigger()
	go listener.Run(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handlers.SetupOpsRoutes(app, handlers.OpsDeps{
		Coordinator:  coordinator,
		Trigger:      coordinator,
		Listener:     listener,
		ServiceToken: cfg.ServiceToken,
	})
	go func() {
		if err := app.Listen(cfg.OpsAddr); err != nil {
			log.Printf("Ops server error: %v", err)
		}
	}()

	log.Printf("✅ Indexing chain %s application %s from %s", cfg.ChainID, cfg.ApplicationID, chain.Endpoint())
	log.Printf("✅ Store driver: %s", cfg.StoreDriver)
	log.Printf("✅ Ops server on %s", cfg.OpsAddr)

	<-ctx.Done()
	log.Println("Shutting down indexer...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Ops server shutdown: %v", err)
	}
	<-coordinatorDone
}

func openStores(ctx context.Context, cfg utils.Config) (stores, error) {
	if cfg.StoreDriver == utils.StoreDriverMemory {
		log.Println("⚠️  Using in-memory document store (dry run, nothing is persisted)")
		objects := services.NewMemoryObjectStorage("memory://attachments")
		return stores{
			profiles:      services.NewMemoryCollection[models.Profile](objects, "profiles"),
			donations:     services.NewMemoryCollection[models.Donation](objects, "donations"),
			products:      services.NewMemoryCollection[models.Product](objects, "products"),
			subscriptions: services.NewMemoryCollection[models.SubscriptionOffer](objects, "subscription_offers"),
			objects:       objects,
		}, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return stores{}, err
	}
	if err := models.AutoMigrate(db); err != nil {
		return stores{}, err
	}

	var objects services.ObjectStorage
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Storage(ctx, cfg.R2)
		if err != nil {
			return stores{}, err
		}
		objects = r2
	} else {
		log.Println("⚠️  R2 credentials not set, blob attachments are disabled")
	}

	return stores{
		profiles:      services.NewGormCollection[models.Profile](db, objects, "profiles").WithTimeout(cfg.QueryTimeout),
		donations:     services.NewGormCollection[models.Donation](db, objects, "donations").WithTimeout(cfg.QueryTimeout),
		products:      services.NewGormCollection[models.Product](db, objects, "products").WithTimeout(cfg.QueryTimeout),
		subscriptions: services.NewGormCollection[models.SubscriptionOffer](db, objects, "subscription_offers").WithTimeout(cfg.QueryTimeout),
		objects:       objects,
	}, nil
}
