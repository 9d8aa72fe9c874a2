package api

import (
	"encoding/gob"
	"net/http"
	"time"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/log"
)

const storeName = "pdfquiz_session"

func init() {
	gob.Register([]models.Question{})
	gob.Register([]string{})
}

// NewRouter builds the gin engine with sessions, logging and the quiz
// routes.
func NewRouter(handler *Handler, cfg config.ServerConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Origin", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	maxBytes := cfg.MaxUploadMB << 20
	router.MaxMultipartMemory = maxBytes

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		log.Warn().Msg("No session secret configured, generating a random one")
		secret = securecookie.GenerateRandomKey(32)
	}
	store := memstore.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(storeName, store))

	SetupRoutes(router, handler, maxBytes)
	return router
}

// SetupRoutes sets up the quiz routes
func SetupRoutes(router *gin.Engine, handler *Handler, maxUploadBytes int64) {
	router.GET("/healthz", handler.HandleHealth)

	router.GET("/", handler.HandleIndex)
	router.POST("/", BodyLimit(maxUploadBytes), handler.HandleUpload)

	router.GET("/quiz", handler.HandleQuiz)
	router.POST("/quiz", handler.HandleSubmit)

	router.GET("/results", handler.HandleResults)
}
