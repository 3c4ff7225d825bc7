package main

import (
	"context"
	"log"

	_ "github.com/dhima/notification-scheduler/docs" // Import generated docs
	"github.com/dhima/notification-scheduler/internal/api"
)

// @title Notification Scheduler API
// @version 1.0
// @description Schedules local notifications and re-arms them after every fire.
// @description
// @description ## Schedule kinds
// @description - **at**: a single timestamp, optionally repeating with the gap between registration and that timestamp
// @description - **interval**: a partial calendar pattern such as "every day at 09:00" evaluated in a timezone
// @description - **every**: a fixed count of year, month, two-weeks, week, day, hour, minute or second units
// @description
// @description ## Delivery
// @description Fired notifications are published to Kafka, keyed by schedule id, and recorded in the delivery history.

// @contact.name API Support
// @contact.url https://github.com/Dhi13man/notification-scheduler

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	srv, err := api.NewServer(context.Background())
	if err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	if err := srv.Serve(); err != nil {
		log.Fatalf("api server stopped: %v", err)
	}
}
