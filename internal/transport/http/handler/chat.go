package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"legalrag/internal/app"
	"legalrag/internal/model"
	"legalrag/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type CreateSessionRequest struct {
	Title   string   `json:"title" binding:"max=256"`
	Domains []string `json:"domains"`
}

type AskRequest struct {
	SessionID uint     `json:"session_id" binding:"required,gt=0"`
	Query     string   `json:"query" binding:"required"`
	Domains   []string `json:"domains"`
}

type RegenerateRequest struct {
	MessageID uint     `json:"message_id" binding:"required,gt=0"`
	Domains   []string `json:"domains"`
}

// TurnResponse is the client-facing answer shape: the answer text plus
// scored citations back to the provisions it was grounded in.
type TurnResponse struct {
	AnswerText       string             `json:"answer_text"`
	Citations        []model.Citation   `json:"citations"`
	UserMessage      *model.ChatMessage `json:"user_message,omitempty"`
	AssistantMessage *model.ChatMessage `json:"assistant_message"`
}

func newTurnResponse(userMessage, assistantMessage *model.ChatMessage) TurnResponse {
	citations := assistantMessage.Citations
	if citations == nil {
		citations = []model.Citation{}
	}
	return TurnResponse{
		AnswerText:       assistantMessage.Content,
		Citations:        citations,
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.chatService.CreateSession(app.CreateSessionInput{
		Title:   req.Title,
		Domains: req.Domains,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create session failed")
		return
	}
	response.OK(c, session)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	sessions, err := h.chatService.ListSessions()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list sessions failed")
		return
	}
	response.OK(c, sessions)
}

func (h *ChatHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	userMessage, assistantMessage, err := h.chatService.ProcessTurn(c.Request.Context(), app.TurnInput{
		SessionID: req.SessionID,
		Query:     req.Query,
		Domains:   req.Domains,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "process turn failed")
		}
		return
	}
	response.OK(c, newTurnResponse(userMessage, assistantMessage))
}

func (h *ChatHandler) Regenerate(c *gin.Context) {
	var req RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	assistantMessage, err := h.chatService.RegenerateTurn(c.Request.Context(), req.MessageID, req.Domains)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrNotFound):
			response.Error(c, http.StatusNotFound, response.CodeMessageNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "regenerate failed")
		}
		return
	}
	response.OK(c, newTurnResponse(nil, assistantMessage))
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	sessionID64, err := strconv.ParseUint(c.Query("session_id"), 10, 64)
	if err != nil || sessionID64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return
	}

	messages, err := h.chatService.GetHistory(c.Request.Context(), uint(sessionID64))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get history failed")
		}
		return
	}
	response.OK(c, messages)
}
