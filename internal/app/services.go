package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Meeting       services.MeetingService
	Asset         services.AssetService
	Employee      services.EmployeeService
	Transcription services.TranscriptionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients) Services {
	log.Info("Wiring services...")

	var providers []services.TranscriptionProvider
	if clients.AssemblyAI != nil {
		providers = append(providers, services.NewAssemblyAIProvider(clients.AssemblyAI, clients.Bucket))
	}
	if clients.GcpSpeech != nil {
		providers = append(providers, services.NewGCPSpeechProvider(clients.GcpSpeech, clients.Bucket))
	}
	if len(providers) == 0 {
		log.Warn("No transcription provider configured; transcription requests will fail")
	}

	return Services{
		Auth: services.NewAuthService(log, cfg.Auth.JWTSecretKey, cfg.Auth.AdminPasswordHash, cfg.accessTTL()),
		Meeting: services.NewMeetingService(
			db, log,
			reposet.Meeting, reposet.Asset, reposet.Employee,
			clients.Bucket,
		),
		Asset: services.NewAssetService(
			db, log,
			reposet.Meeting, reposet.Asset,
			clients.Bucket,
			services.AssetURLConfig{
				UploadTTL: time.Duration(cfg.Storage.UploadURLSeconds) * time.Second,
				ReadTTL:   time.Duration(cfg.Storage.ReadURLSeconds) * time.Second,
			},
		),
		Employee: services.NewEmployeeService(db, log, reposet.Employee),
		Transcription: services.NewTranscriptionService(
			db, log,
			reposet.Meeting, reposet.Asset, reposet.Artefact,
			providers,
			clients.Bus,
			clients.OpenAI,
			services.TranscriptionConfig{
				DefaultProvider: cfg.Transcription.DefaultProvider,
				DefaultLanguage: cfg.Transcription.DefaultLanguage,
				Background:      cfg.Transcription.Background,
			},
		),
	}
}
