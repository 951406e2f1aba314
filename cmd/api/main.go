package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	config "github.com/wavechat/wavechat-backend/configs"
	"github.com/wavechat/wavechat-backend/database"
	"github.com/wavechat/wavechat-backend/handlers"
	"github.com/wavechat/wavechat-backend/jobs"
	"github.com/wavechat/wavechat-backend/notifications"
	"github.com/wavechat/wavechat-backend/routes"
	"github.com/wavechat/wavechat-backend/services"
	"github.com/wavechat/wavechat-backend/websocket"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedDemoUsers()
	notifications.InitPushService()
	notifications.InitInboxService()

	hub := websocket.NewHub()

	var pushSender services.PushSender
	if notifications.PushClient != nil {
		pushSender = notifications.PushClient
	}
	var inboxStore services.InboxStore
	if notifications.InboxClient != nil {
		inboxStore = notifications.InboxClient
	}

	dispatcher := services.NewDeliveryDispatcher(hub, pushSender, inboxStore)
	blocks := services.NewBlockService(database.DB)
	messages := services.NewMessageService(database.DB, blocks, dispatcher)

	messagingHandler := handlers.NewMessagingHandler(messages)
	wsHandler := handlers.NewWsHandler(hub)

	jobs.Presence = hub.Registry()
	c := cron.New()
	c.AddFunc("* * * * *", jobs.LogPresenceStats)
	go c.Start()
	log.Println("✅ Presence stats job scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "WaveChat",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	routes.AuthRoutes(app)
	routes.MessagingRoutes(app, messagingHandler, wsHandler)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	port := config.ConfigOr("PORT", "8080")
	log.Printf("✅ Server is running on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
