package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/meetingdesk-backend/internal/http/handlers"
	httpMW "github.com/yungbote/meetingdesk-backend/internal/http/middleware"
	"github.com/yungbote/meetingdesk-backend/internal/observability"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
)

const serviceName = "meetingdesk-api"

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler     *httpH.AuthHandler
	HealthHandler   *httpH.HealthHandler
	MeetingHandler  *httpH.MeetingHandler
	AssetHandler    *httpH.AssetHandler
	ArtefactHandler *httpH.ArtefactHandler
	EmployeeHandler *httpH.EmployeeHandler
	RealtimeHandler *httpH.RealtimeHandler
	EditorHandler   *httpH.EditorHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	editor := r.Group("/editor")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
		editor.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.AuthHandler != nil {
		protected.POST("/logout", cfg.AuthHandler.Logout)
	}

	if cfg.MeetingHandler != nil {
		protected.POST("/meetings", cfg.MeetingHandler.Create)
		protected.GET("/meetings", cfg.MeetingHandler.List)
		protected.GET("/meetings/:id", cfg.MeetingHandler.Get)
		protected.PUT("/meetings/:id", cfg.MeetingHandler.Update)
		protected.DELETE("/meetings/:id", cfg.MeetingHandler.Delete)
	}

	if cfg.AssetHandler != nil {
		protected.POST("/meetings/:id/assets", cfg.AssetHandler.RequestUpload)
		protected.GET("/meetings/:id/assets", cfg.AssetHandler.ListByMeeting)
		protected.POST("/assets/:id/uploaded", cfg.AssetHandler.MarkUploaded)
		protected.GET("/assets/:id/url", cfg.AssetHandler.ReadURL)
		protected.DELETE("/assets/:id", cfg.AssetHandler.Delete)
	}

	// Realtime (SSE). Registered before the :id routes it shares a prefix with.
	if cfg.RealtimeHandler != nil {
		protected.GET("/artefacts/events", cfg.RealtimeHandler.ArtefactEvents)
	}

	if cfg.ArtefactHandler != nil {
		protected.POST("/transcriptions", cfg.ArtefactHandler.CreateTranscription)
		protected.GET("/transcriptions/providers", cfg.ArtefactHandler.Providers)
		protected.GET("/meetings/:id/artefacts", cfg.ArtefactHandler.ListByMeeting)
		protected.GET("/artefacts/:id/transcription", cfg.ArtefactHandler.GetTranscription)
		protected.PUT("/artefacts/:id/transcription", cfg.ArtefactHandler.SaveTranscription)
		protected.POST("/artefacts/:id/segments", cfg.ArtefactHandler.BuildSegments)
		protected.POST("/artefacts/:id/retry", cfg.ArtefactHandler.Retry)
		protected.POST("/artefacts/:id/refresh", cfg.ArtefactHandler.Refresh)
		protected.POST("/artefacts/:id/summary", cfg.ArtefactHandler.Summarize)
		protected.GET("/artefacts/:id/download", cfg.ArtefactHandler.Download)
		protected.DELETE("/artefacts/:id", cfg.ArtefactHandler.Delete)
	}

	if cfg.EmployeeHandler != nil {
		protected.POST("/employees", cfg.EmployeeHandler.Create)
		protected.GET("/employees", cfg.EmployeeHandler.List)
		protected.GET("/employees/:id", cfg.EmployeeHandler.Get)
		protected.PUT("/employees/:id", cfg.EmployeeHandler.Update)
		protected.DELETE("/employees/:id", cfg.EmployeeHandler.Delete)
	}

	// Editor UI (HTML)
	if cfg.EditorHandler != nil {
		editor.GET("/artefacts/:id", cfg.EditorHandler.Show)
		editor.POST("/artefacts/:id", cfg.EditorHandler.Submit)
	}

	return r
}
