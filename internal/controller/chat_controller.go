package controller

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/devora-bit/sphere/internal/dto"
	"github.com/devora-bit/sphere/internal/pkg/logger"
	"github.com/devora-bit/sphere/internal/pkg/serverutils"
	"github.com/devora-bit/sphere/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	Providers(ctx *fiber.Ctx) error
	SetProvider(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	log         logger.ILogger
}

func NewChatController(chatService service.IChatService, log logger.ILogger) IChatController {
	return &chatController{
		chatService: chatService,
		log:         log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("", c.Chat)
	h.Get("history", c.History)
	h.Get("sessions", c.ListSessions)
	h.Post("sessions", c.CreateSession)
	h.Delete("sessions/:id", c.DeleteSession)
	h.Get("providers", c.Providers)
	h.Put("providers/:name", c.SetProvider)

	h.Use("stream", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("stream", websocket.New(c.stream))
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Chat(ctx.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrSessionBusy) {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success chat", res))
}

// streamFrame is one websocket message in the chat stream protocol.
type streamFrame struct {
	Type      string `json:"type"` // "fragment", "done", "error"
	Content   string `json:"content,omitempty"`
	SessionId string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// stream handles one streamed chat turn per websocket connection. The
// client sends a single chat request, the server answers with fragment
// frames and closes with a done frame, or an error frame when the turn
// could not be saved.
func (c *chatController) stream(conn *websocket.Conn) {
	defer conn.Close()

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return
	}

	var req dto.ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Message == "" {
		c.writeFrame(conn, streamFrame{Type: "error", Message: "invalid chat request"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel generation the moment the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	fragments, completion, sessionId, err := c.chatService.ChatStream(ctx, &req)
	if err != nil {
		c.writeFrame(conn, streamFrame{Type: "error", Message: err.Error()})
		return
	}

	for fragment := range fragments {
		if err := c.writeFrame(conn, streamFrame{Type: "fragment", Content: fragment}); err != nil {
			cancel()
			// Drain so the producer can observe the cancellation and stop.
			for range fragments {
			}
			return
		}
	}

	// A nil receive means the producer closed the channel after a clean
	// finish. A saved turn is the contract of a done frame, so a persist
	// failure must surface as an error instead.
	if perr := <-completion; perr != nil {
		c.writeFrame(conn, streamFrame{Type: "error", SessionId: sessionId, Message: perr.Error()})
		return
	}

	c.writeFrame(conn, streamFrame{Type: "done", SessionId: sessionId})
}

func (c *chatController) writeFrame(conn *websocket.Conn, frame streamFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	sessionId := ctx.Query("session_id")

	res, err := c.chatService.GetHistory(ctx.Context(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show history", res))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	res, err := c.chatService.ListSessions(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	res, err := c.chatService.CreateSession(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("id")
	if err := c.chatService.DeleteSession(ctx.Context(), sessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}

func (c *chatController) Providers(ctx *fiber.Ctx) error {
	res, err := c.chatService.Providers(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list providers", res))
}

func (c *chatController) SetProvider(ctx *fiber.Ctx) error {
	name := ctx.Params("name")
	if err := c.chatService.SetProvider(name); err != nil {
		if errors.Is(err, service.ErrUnknownProvider) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set provider", nil))
}
