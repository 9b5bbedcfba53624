package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/donna-backend/internal/auth"
	"github.com/GoSim-25-26J-441/donna-backend/internal/logging"
)

type Chatter interface {
	Chat(ctx context.Context, conversation, text string) (string, error)
}

type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

type ChatHandler struct {
	agent Chatter
}

func NewChatHandler(agent Chatter) *ChatHandler {
	return &ChatHandler{agent: agent}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	conv := strings.TrimSpace(req.ConversationID)
	if conv == "" {
		conv = "api"
		if uid := auth.OwnerUID(c); uid != "" {
			conv = "api:" + uid
		}
	}

	out, err := h.agent.Chat(c.Request.Context(), conv, req.Message)
	if err != nil {
		logging.New(c.Request.Context()).Error("chat", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Response: out, ConversationID: conv})
}

func (h *ChatHandler) Register(r gin.IRouter) {
	r.POST("/chat", h.Chat)
}
