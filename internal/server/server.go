package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"concierge/internal/dialogue"
	"concierge/internal/llm"
	"concierge/internal/router"
	"concierge/internal/store"
)

const sessionHeader = "X-Session-Id"

// #region server

// Options wires the server's collaborators.
type Options struct {
	Router     *router.Router
	Store      *store.Store      // optional, health checks only
	Transcript *store.Transcript // optional, per-turn provenance log
	DBEnabled  bool
	Origins    []string
}

// Server exposes the conversational middleware over HTTP: an
// OpenAI-compatible SSE chat endpoint plus health.
type Server struct {
	router     *router.Router
	store      *store.Store
	transcript *store.Transcript
	sessions   *Sessions
}

// New builds a server and its session registry.
func New(opts Options) *Server {
	return &Server{
		router:     opts.Router,
		store:      opts.Store,
		transcript: opts.Transcript,
		sessions:   NewSessions(opts.DBEnabled),
	}
}

// Sessions exposes the registry, mainly for the REPL and tests.
func (s *Server) Sessions() *Sessions { return s.sessions }

// Engine assembles the gin engine with CORS, the chat endpoint, and health.
func (s *Server) Engine(origins []string) *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", sessionHeader}
	e.Use(cors.New(corsConfig))

	e.GET("/health", s.health)
	e.POST("/v1/chat/completions", s.chat)
	return e
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string, origins []string) error {
	log.Printf("[SRV] middleware listening at http://%s/v1/chat/completions", addr)
	return s.Engine(origins).Run(addr)
}

// #endregion server

// #region health

func (s *Server) health(c *gin.Context) {
	db := "disabled"
	if s.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			db = "unreachable"
		} else {
			db = "ok"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"db":       db,
		"sessions": s.sessions.Count(),
	})
}

// #endregion health

// #region chat

// chatRequest is the OpenAI-compatible request body. The optional user field
// doubles as a session id when the header is absent.
type chatRequest struct {
	llm.Payload
	User string `json:"user"`
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	sid := c.GetHeader(sessionHeader)
	if sid == "" {
		sid = req.User
	}
	sid, st, release := s.sessions.Acquire(sid)
	defer release()

	turnsBefore := len(st.History)

	stream, err := s.router.Route(c.Request.Context(), req.Payload, st)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header(sessionHeader, sid)

	reply := s.pump(c, stream)

	if reply != "" {
		st.AddAssistantTurn(reply)
	}
	s.logTurns(sid, st, turnsBefore)
}

// pump drives the reply stream onto the wire and returns the accumulated
// assistant text.
func (s *Server) pump(c *gin.Context, stream llm.Stream) string {
	flusher, _ := c.Writer.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}

	var reply strings.Builder
	for {
		f, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Printf("[SRV] stream aborted: %v", err)
			break
		}
		switch {
		case f.Done:
			fmt.Fprint(c.Writer, "data: [DONE]\n\n")
			flush()
			return reply.String()
		case f.KeepAlive:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
		case f.Data != "":
			reply.WriteString(deltaContent(f.Data))
			fmt.Fprintf(c.Writer, "data: %s\n\n", f.Data)
		}
		flush()
		if c.Request.Context().Err() != nil {
			break
		}
	}
	return reply.String()
}

// deltaContent pulls the text delta out of one streamed chunk; unparseable
// chunks contribute nothing to the transcript.
func deltaContent(data string) string {
	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		return ""
	}
	var b strings.Builder
	for _, ch := range chunk.Choices {
		b.WriteString(ch.Delta.Content)
	}
	return b.String()
}

func (s *Server) logTurns(sid string, st *dialogue.State, from int) {
	if s.transcript == nil {
		return
	}
	for _, turn := range st.History[from:] {
		if err := s.transcript.LogTurn(sid, turn); err != nil {
			log.Printf("[SRV] transcript write failed: %v", err)
			return
		}
	}
}

// #endregion chat
