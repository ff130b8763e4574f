package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docuchat/internal/config"
	"docuchat/internal/extract"
	"docuchat/internal/service/ai"
	"docuchat/internal/service/chat"
	"docuchat/internal/session"
)

// ChatService is the surface the handlers call; chat.Service implements it.
type ChatService interface {
	Chat(ctx context.Context, sessionID, message string) (string, error)
	UploadDocument(ctx context.Context, sessionID, fileName string, data []byte) (*chat.UploadResult, error)
	ChatWithDocument(ctx context.Context, sessionID, fileName string, data []byte, message string) (string, error)
	ClearDocument(ctx context.Context, sessionID string) error
}

// Handler wires HTTP routes to the chat service.
type Handler struct {
	chat ChatService
	cfg  *config.Config
}

// NewHandler constructs a Handler instance.
func NewHandler(service ChatService, cfg *config.Config) *Handler {
	return &Handler{chat: service, cfg: cfg}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.health)

	api := router.Group("/api")
	api.Use(session.Middleware())
	api.POST("/chat", h.chatMessage)
	api.POST("/documents", h.uploadDocument)
	api.POST("/documents/chat", h.chatWithDocument)
	api.DELETE("/documents", h.clearDocument)
	api.GET("/config/status", h.configStatus)

	if dir := h.cfg.Server.StaticDir; dir != "" {
		router.StaticFile("/", filepath.Join(dir, "index.html"))
		router.Static("/static", dir)
	}
}

func (h *Handler) sessionID(c *gin.Context) (string, bool) {
	id, ok := session.FromContext(c)
	if !ok || id == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session not established"})
		return "", false
	}
	return id, true
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) chatMessage(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	reply, err := h.chat.Chat(c.Request.Context(), sessionID, message)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

func (h *Handler) uploadDocument(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	fileName, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	res, err := h.chat.UploadDocument(c.Request.Context(), sessionID, fileName, data)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	reply := res.Summary
	if reply == "" {
		reply = fmt.Sprintf("Stored %s (%d chunks). Ask me about it.", fileName, res.ChunkCount)
	}
	c.JSON(http.StatusOK, gin.H{
		"response":       reply,
		"documentStored": true,
		"chunkCount":     res.ChunkCount,
	})
}

func (h *Handler) chatWithDocument(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	fileName, data, ok := h.readUpload(c)
	if !ok {
		return
	}
	message := strings.TrimSpace(c.PostForm("message"))
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}
	reply, err := h.chat.ChatWithDocument(c.Request.Context(), sessionID, fileName, data, message)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

func (h *Handler) clearDocument(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.chat.ClearDocument(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// configStatus reports which settings are configured and where each value
// came from. Secret values are never echoed.
func (h *Handler) configStatus(c *gin.Context) {
	active := h.cfg.Active()
	c.JSON(http.StatusOK, gin.H{
		"provider":       h.cfg.Provider,
		"model":          active.Model,
		"store":          h.cfg.Store.Backend,
		"loggingEnabled": h.cfg.Logging.Endpoint != "",
		"settings":       h.cfg.Diagnostics(),
	})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readUpload buffers the multipart "file" field into memory after the size
// and extension checks.
func (h *Handler) readUpload(c *gin.Context) (string, []byte, bool) {
	maxBytes := h.cfg.MaxUploadBytes()
	if err := c.Request.ParseMultipartForm(maxBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return "", nil, false
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return "", nil, false
	}
	if file.Size > maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file exceeds the %d MB upload limit", h.cfg.Document.MaxUploadMB)})
		return "", nil, false
	}
	fileName := filepath.Base(file.Filename)
	if !extract.Supported(fileName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file type %q", filepath.Ext(fileName))})
		return "", nil, false
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return "", nil, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return "", nil, false
	}
	return fileName, data, true
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "completion provider is not configured, set an API key and retry"})
	case errors.Is(err, chat.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, extract.ErrUnsupportedType), errors.Is(err, chat.ErrEmptyExtraction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
