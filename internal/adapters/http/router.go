package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/duocall/internal/adapters/signal"
	"github.com/dkeye/duocall/internal/app/orch"
	"github.com/dkeye/duocall/internal/config"
	"github.com/dkeye/duocall/internal/ice"
	"github.com/dkeye/duocall/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "ct"

// Deps are the collaborators the router exposes over HTTP.
type Deps struct {
	Orch    *orch.Orchestrator
	Signal  *signal.SignalWSController
	ICE     ice.Provider
	Metrics *metrics.Metrics
}

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware keeps a per-browser token in the session cookie so
// logs from separate connections of one client can be correlated.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cors.New(cc)
		}
	}
	cc.AllowOrigins = origins
	cc.AllowCredentials = true
	return cors.New(cc)
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	}

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("DuocallSessions", store))
	r.Use(ClientTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	r.GET("/healthz", func(c *gin.Context) {
		conns, identities := deps.Orch.Registry.Counts()
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": conns,
			"identities":  identities,
		})
	})

	creds := credentialsHandler(deps.ICE, deps.Metrics)
	r.GET("/credentials", creds)

	if cfg.Metrics.Enabled && deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/turn", creds)
	api.GET("/identities", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"identifiers": deps.Orch.Identifiers()})
	})
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		deps.Signal.HandleSignal(ctx, c)
	})

	return r
}

func credentialsHandler(p ice.Provider, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p == nil {
			c.JSON(http.StatusOK, []ice.Server{})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		servers, err := p.ICEServers(ctx)
		if err != nil {
			m.Failure(metrics.FailureCredentials)
			log.Error().Err(err).Str("module", "adapters.http").Msg("fetch ice servers")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, servers)
	}
}
