package operator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pending is a prompt waiting for acknowledgement.
type pending struct {
	ID     string    `json:"id"`
	Prompt Prompt    `json:"prompt"`
	Since  time.Time `json:"since"`
	ack    chan struct{}
}

// HTTP exposes prompts over a small REST API so a remote operator can
// acknowledge them:
//
//	GET  /prompt  current prompt, or 204 when nothing is pending
//	POST /ack     acknowledge the current prompt (optional ?id=)
//	GET  /events  prompts as Server-Sent Events
type HTTP struct {
	serial sync.Mutex // one outstanding prompt at a time

	mu          sync.Mutex
	current     *pending
	subscribers map[chan pending]struct{}

	engine *gin.Engine
	logger *slog.Logger
}

// NewHTTP creates an HTTP operator.
func NewHTTP(logger *slog.Logger) *HTTP {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	gin.SetMode(gin.ReleaseMode)

	h := &HTTP{subscribers: map[chan pending]struct{}{}, logger: logger}
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/prompt", h.handlePrompt)
	r.POST("/ack", h.handleAck)
	r.GET("/events", h.handleEvents)
	h.engine = r
	return h
}

// Handler returns the HTTP handler.
func (h *HTTP) Handler() http.Handler {
	return h.engine
}

// Await publishes p and blocks until it is acknowledged or ctx is done.
func (h *HTTP) Await(ctx context.Context, p Prompt) error {
	h.serial.Lock()
	defer h.serial.Unlock()

	cur := &pending{ID: uuid.NewString(), Prompt: p, Since: time.Now(), ack: make(chan struct{})}
	h.mu.Lock()
	h.current = cur
	for ch := range h.subscribers {
		select {
		case ch <- *cur:
		default:
		}
	}
	h.mu.Unlock()

	h.logger.Info("waiting for operator",
		slog.String("kind", string(p.Kind)),
		slog.String("board", p.Board),
		slog.String("prompt_id", cur.ID))

	defer func() {
		h.mu.Lock()
		if h.current == cur {
			h.current = nil
		}
		h.mu.Unlock()
	}()

	select {
	case <-cur.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *HTTP) handlePrompt(c *gin.Context) {
	h.mu.Lock()
	cur := h.current
	h.mu.Unlock()

	if cur == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, cur)
}

func (h *HTTP) handleAck(c *gin.Context) {
	id := c.Query("id")

	h.mu.Lock()
	cur := h.current
	if cur == nil || (id != "" && id != cur.ID) {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "no matching prompt is pending"})
		return
	}
	h.current = nil
	h.mu.Unlock()

	close(cur.ack)
	c.JSON(http.StatusOK, gin.H{"acknowledged": cur.ID})
}

func (h *HTTP) handleEvents(c *gin.Context) {
	sse, err := newSSEWriter(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ch := make(chan pending, 4)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	cur := h.current
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		h.mu.Unlock()
	}()

	if cur != nil {
		if err := sse.writeEvent("prompt", cur); err != nil {
			return
		}
	}
	for {
		select {
		case p := <-ch:
			if err := sse.writeEvent("prompt", p); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

// ListenAndServe serves the API on addr until ctx is done, then shuts down.
func (h *HTTP) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("operator API listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
