package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/onra/voice/internal/adapters/ws"
	"github.com/onra/voice/internal/config"
	"github.com/onra/voice/internal/domain"
	"github.com/onra/voice/internal/relay"
	"github.com/onra/voice/internal/store"
)

const sessionUserKey = "userId"

func SetupRouter(ctx context.Context, cfg *config.Config, st store.Store, rel *relay.Relay) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	sessionStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("OnraVoiceSession", sessionStore))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	wsCtl := ws.NewController(rel, cfg.ReadLimit, cfg.PingPeriod)
	r.GET("/ws", func(c *gin.Context) {
		wsCtl.Handle(ctx, c)
	})

	h := &Handlers{Store: st, Cfg: cfg}

	api := r.Group("/api")
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	authed := api.Group("")
	authed.Use(authRequired())
	authed.GET("/auth/me", h.Me)
	authed.GET("/config/ice", h.ICEServers)

	authed.GET("/users", h.ListUsers)
	authed.GET("/users/:id", h.GetUser)
	authed.GET("/rooms", h.ListRooms)
	authed.GET("/rooms/:id", h.GetRoom)
	authed.GET("/recordings", h.ListRecordings)
	authed.GET("/recordings/:id", h.GetRecording)
	authed.POST("/recordings", h.CreateRecording)

	admin := authed.Group("")
	admin.Use(h.adminRequired())
	admin.POST("/users", h.CreateUser)
	admin.PUT("/users/:id", h.UpdateUser)
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.POST("/rooms", h.CreateRoom)
	admin.PUT("/rooms/:id", h.UpdateRoom)
	admin.DELETE("/rooms/:id", h.DeleteRoom)
	admin.DELETE("/recordings/:id", h.DeleteRecording)

	return r
}

func authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if sess.Get(sessionUserKey) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.Next()
	}
}

func (h *Handlers) adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		raw := sess.Get(sessionUserKey)
		uid, ok := raw.(int)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		user, err := h.Store.GetUser(c.Request.Context(), domain.UserID(uid))
		if err != nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}
