// handlers/ops_routes.go
package handlers

import (
	"log"

	"creator-indexer/middleware"
	"creator-indexer/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource is what the ops surface reports on.
type StatusSource interface {
	Status() workers.CoordinatorStatus
}

// ListenerStateSource reports the notification listener's lifecycle state.
type ListenerStateSource interface {
	State() workers.ListenerState
}

// OpsDeps bundles what the ops routes need.
type OpsDeps struct {
	Coordinator  StatusSource
	Trigger      workers.Triggerer
	Listener     ListenerStateSource
	ServiceToken string
}

// SetupOpsRoutes registers health, status, metrics and the manual sync trigger.
// The trigger route is only registered when a service token is configured.
func SetupOpsRoutes(app *fiber.App, deps OpsDeps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/status", func(c *fiber.Ctx) error {
		resp := fiber.Map{"coordinator": deps.Coordinator.Status()}
		if deps.Listener != nil {
			resp["listener_state"] = deps.Listener.State().String()
		}
		return c.JSON(resp)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	if deps.ServiceToken == "" {
		log.Println("⚠️  [OPS] SERVICE_TOKEN not set, POST /sync is disabled")
		return
	}
	app.Post("/sync", middleware.ServiceTokenMiddleware(deps.ServiceToken), func(c *fiber.Ctx) error {
		deps.Trigger.Trigger()
		log.Printf("[OPS] 🔁 Manual sync requested from %s", c.IP())
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "sync requested"})
	})
}
