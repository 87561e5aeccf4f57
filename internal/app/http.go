package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/http"
	httpH "github.com/yungbote/meetingdesk-backend/internal/http/handlers"
	httpMW "github.com/yungbote/meetingdesk-backend/internal/http/middleware"
	"github.com/yungbote/meetingdesk-backend/internal/observability"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/realtime"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	Meeting  *httpH.MeetingHandler
	Asset    *httpH.AssetHandler
	Artefact *httpH.ArtefactHandler
	Employee *httpH.EmployeeHandler
	Realtime *httpH.RealtimeHandler
	Editor   *httpH.EditorHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, services Services, hub *realtime.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(db),
		Auth:     httpH.NewAuthHandler(services.Auth, cfg.Auth.SecureCookie),
		Meeting:  httpH.NewMeetingHandler(services.Meeting),
		Asset:    httpH.NewAssetHandler(services.Asset),
		Artefact: httpH.NewArtefactHandler(services.Transcription),
		Employee: httpH.NewEmployeeHandler(services.Employee),
		Realtime: httpH.NewRealtimeHandler(log, hub),
		Editor:   httpH.NewEditorHandler(log, services.Transcription),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth, cfg.Auth.Disabled),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		CORSOrigins:     cfg.HTTP.CORSOrigins,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		MeetingHandler:  handlers.Meeting,
		AssetHandler:    handlers.Asset,
		ArtefactHandler: handlers.Artefact,
		EmployeeHandler: handlers.Employee,
		RealtimeHandler: handlers.Realtime,
		EditorHandler:   handlers.Editor,
	})
}
