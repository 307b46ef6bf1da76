package app

import (
	"fmt"

	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/openai"
	"github.com/yungbote/pathforge-backend/internal/realtime/bus"
)

type Clients struct {
	OpenAI openai.Client
	// SSEBus is nil when REDIS_ADDR is unset.
	SSEBus bus.Bus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Openai
	ai, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Redis
	var b bus.Bus
	if cfg.RedisAddr != "" {
		b, err = bus.NewRedisBus(log, bus.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Channel:  cfg.RedisChannel,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
	}

	return Clients{OpenAI: ai, SSEBus: b}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
}
