package devserver

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/Dton04/hoterier-cli/internal/logger"
	"github.com/Dton04/hoterier-cli/internal/models"
)

// Server is the in-memory stand-in for the production backend: every REST
// endpoint the client consumes plus the realtime channel, so the TUI can be
// exercised end-to-end with no infrastructure.
type Server struct {
	store *Store
	hub   *Hub
	cron  *gocron.Scheduler

	Tokens SeedTokens
}

func New() *Server {
	store, tokens := NewStore()
	return &Server{
		store:  store,
		hub:    NewHub(store),
		Tokens: tokens,
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.GET("/notifications/public/latest", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.store.PublicLatest())
	})

	authed := api.Group("")
	authed.Use(s.authMiddleware())
	{
		authed.GET("/notifications/feed", s.handleFeed)
		authed.POST("/notifications", s.handlePushNotification)

		authed.GET("/chats/conversations", s.handleListConversations)
		authed.POST("/chats/conversations", s.handleCreateConversation)
		authed.POST("/chats/conversations/:id/join", s.handleJoinConversation)
		authed.GET("/chats/conversations/:id/messages", s.handleListMessages)
		authed.POST("/chats/conversations/:id/messages", s.handleSendMessage)
		authed.POST("/chats/conversations/:id/messages/image", s.handleSendImage)

		authed.GET("/users/allusers", s.handleAllUsers)
		authed.GET("/users/search", s.handleSearchUsers)
	}

	router.GET("/socket.io", s.handleSocket)
	return router
}

// StartSweeper emits notification:expired for windows that just closed.
func (s *Server) StartSweeper(interval time.Duration) {
	cron := gocron.NewScheduler(time.Local)
	_, err := cron.Every(interval).Do(func() {
		for _, id := range s.store.SweepExpired() {
			s.hub.BroadcastNotification(models.EventNotificationExpired, models.ExpiredPayload{ID: id}, nil)
		}
	})
	if err != nil {
		logger.Log.WithError(err).Warn("failed to schedule expiry sweep")
		return
	}
	cron.StartAsync()
	s.cron = cron
}

// Stop halts the sweeper.
func (s *Server) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := s.identityFor(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Set("identity", identity)
		c.Next()
	}
}

// identityFor accepts the token from the Authorization header or the query
// string; the client sends both because proxies may strip either.
func (s *Server) identityFor(r *http.Request) (models.Identity, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return models.Identity{}, false
	}
	return s.store.IdentityForToken(token)
}

func identityOf(c *gin.Context) models.Identity {
	identity, _ := c.MustGet("identity").(models.Identity)
	return identity
}

func (s *Server) handleFeed(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.FeedFor(identityOf(c)))
}

func (s *Server) handlePushNotification(c *gin.Context) {
	if !identityOf(c).Role.IsStaff() {
		c.JSON(http.StatusForbidden, gin.H{"error": "staff only"})
		return
	}
	var n models.Notification
	if err := c.ShouldBindJSON(&n); err != nil || n.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification"})
		return
	}
	stored := s.store.AddNotification(n)
	s.hub.BroadcastNotification(models.EventNotificationNew, stored, stored.EligibleFor)
	c.JSON(http.StatusCreated, stored)
}

func (s *Server) handleListConversations(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Conversations(identityOf(c).UserID))
}

func (s *Server) handleCreateConversation(c *gin.Context) {
	var body struct {
		TargetUserID string `json:"targetUserId"`
		HotelID      string `json:"hotelId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || (body.TargetUserID == "" && body.HotelID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "targetUserId or hotelId is required"})
		return
	}
	conv, ok := s.store.EnsureConversation(identityOf(c).UserID, body.TargetUserID, body.HotelID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "target not found"})
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (s *Server) handleJoinConversation(c *gin.Context) {
	if _, ok := s.store.ConversationByID(c.Param("id"), identityOf(c).UserID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "joined"})
}

func (s *Server) handleListMessages(c *gin.Context) {
	conversationID := c.Param("id")
	if _, ok := s.store.ConversationByID(conversationID, identityOf(c).UserID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	c.JSON(http.StatusOK, s.store.Messages(conversationID))
}

func (s *Server) handleSendMessage(c *gin.Context) {
	conversationID := c.Param("id")
	identity := identityOf(c)
	if _, ok := s.store.ConversationByID(conversationID, identity.UserID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	msg := s.store.AppendMessage(conversationID, identity.UserID, models.MessageText, strings.TrimSpace(body.Content), "")
	s.hub.BroadcastToConversation(conversationID, models.EventMessageNew, msg)
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) handleSendImage(c *gin.Context) {
	conversationID := c.Param("id")
	identity := identityOf(c)
	if _, ok := s.store.ConversationByID(conversationID, identity.UserID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	// The fixture does not persist uploads; it only fabricates a URL.
	imageURL := "/uploads/" + uuid.NewString() + filepath.Ext(file.Filename)
	caption := c.PostForm("content")
	msg := s.store.AppendMessage(conversationID, identity.UserID, models.MessageImage, caption, imageURL)
	s.hub.BroadcastToConversation(conversationID, models.EventMessageNew, msg)
	c.JSON(http.StatusCreated, msg)
}

func (s *Server) handleAllUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Users())
}

func (s *Server) handleSearchUsers(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.SearchUsers(c.Query("q")))
}

func (s *Server) handleSocket(c *gin.Context) {
	identity, ok := s.identityFor(c.Request)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
		return
	}
	s.hub.Serve(c.Writer, c.Request, identity)
}
