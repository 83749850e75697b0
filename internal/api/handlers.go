package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"medchat/internal/markup"
	"medchat/internal/models"
	"medchat/internal/redis"
	"medchat/internal/retrieval"
	"medchat/internal/service/assistant"
	"medchat/internal/worker"
	"medchat/web"
)

const askTimeout = 2 * time.Minute

// Asker dispatches a question and eventually yields the assistant's reply.
type Asker interface {
	Ask(worker.AskRequest) (string, error)
	Purge(sessionID int64)
}

// Searcher looks up knowledge-base chunks for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]retrieval.Match, error)
}

// Handler wires HTTP routes to the conversation store and the worker
// manager.
type Handler struct {
	assistant       *assistant.Service
	workers         Asker
	retriever       Searcher
	cache           *redis.Client
	cacheTTL        time.Duration
	maxMessageChars int
}

// NewHandler constructs a Handler instance. retriever and cache may be nil.
func NewHandler(service *assistant.Service, workers Asker, retriever Searcher, cache *redis.Client, cacheTTL time.Duration, maxMessageChars int) *Handler {
	if maxMessageChars <= 0 {
		maxMessageChars = 1000
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &Handler{
		assistant:       service,
		workers:         workers,
		retriever:       retriever,
		cache:           cache,
		cacheTTL:        cacheTTL,
		maxMessageChars: maxMessageChars,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.indexPage)
	router.GET("/health", h.health)
	api := router.Group("/api")
	api.Use(h.sessionMiddleware())
	api.POST("/chat", h.chat)
	api.GET("/history", h.history)
	api.POST("/clear", h.clearHistory)
	api.POST("/sources", h.sources)
}

func (h *Handler) indexPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) chat(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message cannot be empty"})
		return
	}
	if utf8.RuneCountInString(message) > h.maxMessageChars {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is too long. Please keep it under 1000 characters."})
		return
	}

	prior, err := h.assistant.History(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf("chat: load history for session %d: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing your request. Please try again."})
		return
	}
	firstQuestion := len(prior) == 0

	if _, err := h.assistant.AppendMessage(c.Request.Context(), sessionID, models.RoleUser, message); err != nil {
		log.Printf("chat: append user message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing your request. Please try again."})
		return
	}

	reply, cached := h.cachedReply(c.Request.Context(), firstQuestion, message)
	if !cached {
		askCtx, cancel := context.WithTimeout(c.Request.Context(), askTimeout)
		defer cancel()
		reply, err = h.workers.Ask(worker.AskRequest{
			Context:   askCtx,
			SessionID: sessionID,
			Question:  message,
		})
		if err != nil {
			if errors.Is(err, worker.ErrDispatcherBusy) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server is busy, please try again."})
				return
			}
			log.Printf("chat: generate reply for session %d: %v", sessionID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing your request. Please try again."})
			return
		}
		h.storeReply(c.Request.Context(), firstQuestion, message, reply)
	}

	if _, err := h.assistant.AppendMessage(c.Request.Context(), sessionID, models.RoleAssistant, reply); err != nil {
		log.Printf("chat: append assistant message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing your request. Please try again."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":  reply,
		"html":      markup.Format(reply),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// cachedReply consults the first-question reply cache. Replies to later
// questions depend on the conversation, so only fresh sessions are served
// from cache.
func (h *Handler) cachedReply(ctx context.Context, firstQuestion bool, message string) (string, bool) {
	if !firstQuestion || h.cache == nil {
		return "", false
	}
	reply, err := h.cache.Get(ctx, replyCacheKey(message))
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			log.Printf("reply cache get: %v", err)
		}
		return "", false
	}
	return reply, true
}

func (h *Handler) storeReply(ctx context.Context, firstQuestion bool, message, reply string) {
	if !firstQuestion || h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, replyCacheKey(message), reply, h.cacheTTL); err != nil {
		log.Printf("reply cache set: %v", err)
	}
}

func replyCacheKey(message string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(message)))
	return "reply:" + hex.EncodeToString(sum[:])
}

func (h *Handler) history(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return
	}
	messages, err := h.assistant.History(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf("history: session %d: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load history."})
		return
	}
	entries := make([]gin.H, 0, len(messages))
	for _, msg := range messages {
		entry := gin.H{
			"role":      wireRole(msg.Role),
			"message":   msg.Content,
			"timestamp": msg.CreatedAt.Format(time.RFC3339),
		}
		if msg.Role == models.RoleAssistant {
			entry["html"] = markup.Format(msg.Content)
		}
		entries = append(entries, entry)
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

// wireRole maps storage roles onto the public contract ("user"/"bot").
func wireRole(role models.Role) string {
	if role == models.RoleAssistant {
		return "bot"
	}
	return string(role)
}

const sourceContentLimit = 200

type sourcesRequest struct {
	Query string `json:"query"`
}

// sources returns the top knowledge-base chunks for a query so the client
// can show where an answer would come from.
func (h *Handler) sources(c *gin.Context) {
	if h.retriever == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Source lookup is currently unavailable."})
		return
	}
	var req sourcesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query cannot be empty"})
		return
	}

	matches, err := h.retriever.Search(c.Request.Context(), query)
	if err != nil {
		log.Printf("sources: search %q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sources."})
		return
	}

	sources := make([]gin.H, 0, len(matches))
	for _, m := range matches {
		content := m.Text
		if runes := []rune(content); len(runes) > sourceContentLimit {
			content = string(runes[:sourceContentLimit]) + "..."
		}
		sources = append(sources, gin.H{"source": m.Source, "content": content})
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

// health reports whether the service can answer: the store must be
// reachable; retrieval is optional and only reported.
func (h *Handler) health(c *gin.Context) {
	status := "healthy"
	if err := h.assistant.Ping(c.Request.Context()); err != nil {
		log.Printf("health: store ping: %v", err)
		status = "unhealthy"
	}
	retrievalStatus := "configured"
	if h.retriever == nil {
		retrievalStatus = "disabled"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"retrieval": retrievalStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) clearHistory(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return
	}
	h.workers.Purge(sessionID)
	if err := h.assistant.ClearHistory(c.Request.Context(), sessionID); err != nil {
		log.Printf("clear: session %d: %v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not clear history."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
