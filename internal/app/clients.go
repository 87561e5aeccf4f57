package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/meetingdesk-backend/internal/platform/assemblyai"
	"github.com/yungbote/meetingdesk-backend/internal/platform/gcp"
	"github.com/yungbote/meetingdesk-backend/internal/platform/logger"
	"github.com/yungbote/meetingdesk-backend/internal/platform/openai"
	"github.com/yungbote/meetingdesk-backend/internal/realtime/bus"
)

// Clients holds the outbound connections. Optional ones stay nil when their
// configuration is absent.
type Clients struct {
	Bus        bus.Bus
	Bucket     gcp.BucketService
	AssemblyAI *assemblyai.Client
	GcpSpeech  gcp.Speech
	OpenAI     openai.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis fans events out across replicas; a single process can use memory.
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, err := bus.NewRedisBus(log, bus.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		c.Bus = b
	} else {
		log.Info("REDIS_ADDR not set; artefact events stay in process")
		c.Bus = bus.NewMemoryBus()
	}

	// Gcs
	storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.Storage.Mode, cfg.Storage.EmulatorHost, cfg.Storage.Bucket)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("object storage config: %w", err)
	}
	bucket, err := gcp.NewBucketService(log, gcp.BucketConfig{
		Storage:       storageCfg,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		Credentials:   cfg.Storage.Credentials,
	})
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}
	c.Bucket = bucket

	// AssemblyAI
	if strings.TrimSpace(cfg.AssemblyAI.APIKey) != "" {
		aai, err := assemblyai.NewClient(log, assemblyai.Config{
			APIKey:       cfg.AssemblyAI.APIKey,
			BaseURL:      cfg.AssemblyAI.BaseURL,
			PollInterval: time.Duration(cfg.AssemblyAI.PollIntervalMS) * time.Millisecond,
			MaxWait:      time.Duration(cfg.AssemblyAI.MaxWaitMS) * time.Millisecond,
			DirectURL:    cfg.AssemblyAI.DirectURL,
			MaxRetries:   cfg.AssemblyAI.MaxRetries,
		})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init assemblyai client: %w", err)
		}
		c.AssemblyAI = aai
	} else {
		log.Warn("ASSEMBLYAI_API_KEY not set; assemblyai provider disabled")
	}

	// Gcp speech
	if cfg.GCPSpeech.Enabled {
		speech, err := gcp.NewSpeech(log, cfg.Storage.Credentials, time.Duration(cfg.GCPSpeech.MaxWaitMS)*time.Millisecond)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init speech client: %w", err)
		}
		c.GcpSpeech = speech
	}

	// Openai
	if strings.TrimSpace(cfg.OpenAI.APIKey) != "" {
		llm, err := openai.NewClient(log, openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		c.OpenAI = llm
	} else {
		log.Info("OPENAI_API_KEY not set; summaries disabled")
	}

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.GcpSpeech != nil {
		_ = c.GcpSpeech.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
}
