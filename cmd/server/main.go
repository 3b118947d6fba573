package main

import (
	"context"
	"log"
	"strings"

	"github.com/chronicle-hq/chronicle/internal/ai"
	"github.com/chronicle-hq/chronicle/internal/config"
	"github.com/chronicle-hq/chronicle/internal/db"
	"github.com/chronicle-hq/chronicle/internal/httpapi"
	"github.com/chronicle-hq/chronicle/internal/store"
	"github.com/chronicle-hq/chronicle/internal/store/gormstore"
	"github.com/chronicle-hq/chronicle/internal/store/memstore"
	"github.com/chronicle-hq/chronicle/internal/store/rabbitmq"
	"github.com/chronicle-hq/chronicle/internal/store/redisstore"
)

func buildStore(cfg config.Config) store.Store {
	switch strings.ToLower(cfg.StoreBackend) {
	case "", "memory":
		log.Printf("store backend=memory (data is not persisted)")
		return memstore.New()
	case "mysql":
		gdb := db.Connect(cfg.DBDSN)
		if err := gormstore.AutoMigrate(gdb); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
		log.Printf("store backend=mysql")
		return gormstore.New(gdb)
	default:
		log.Fatalf("unsupported STORE_BACKEND=%q", cfg.StoreBackend)
		return nil
	}
}

func buildProvider(cfg config.Config) ai.Provider {
	reg := ai.NewRegistry()
	reg.Register("openai", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenAIModel
		}
		return ai.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, m), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})

	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		log.Fatalf("ai provider: %v", err)
	}
	return provider
}

func main() {
	cfg := config.Load()

	st := buildStore(cfg)
	provider := buildProvider(cfg)
	presence := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	var events *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			log.Printf("rabbit unavailable, room events disabled: %v", err)
		} else {
			events = p
			defer events.Close()
		}
	}

	r := httpapi.NewRouter(st, cfg, provider, presence, events)
	log.Printf("listening addr=%s provider=%s", cfg.Addr, cfg.AIProvider)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
