package routes

import (
	"github.com/wavechat/wavechat-backend/handlers"
	"github.com/wavechat/wavechat-backend/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MessagingRoutes(app *fiber.App, h *handlers.MessagingHandler, ws *handlers.WsHandler) {
	api := app.Group("/api/v1")

	messages := api.Group("/messages", middleware.Protected())
	messages.Post("", h.SendMessage)
	messages.Get("/:otherUserId", h.GetMessages)
	messages.Get("/:otherUserId/new", h.GetNewMessages)

	api.Get("/conversations", middleware.Protected(), h.GetConversations)
	api.Get("/unread-count", middleware.Protected(), h.GetUnreadCount)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(ws.ServeWs))
}
