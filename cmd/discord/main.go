// cmd/discord/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"proactive-friend/internal/ai"
	"proactive-friend/internal/config"
	"proactive-friend/internal/discord"
	"proactive-friend/internal/mind"
	"proactive-friend/internal/storage"
)

func main() {
	log.Println("[INFO] Starting proactive-friend bot...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	sessionID := uuid.NewString()[:8]
	research := mind.NewResearchLogger(cfg.LogDirectory, sessionID)
	defer research.Close()

	provider := ai.NewOpenAIProvider(cfg.OpenAIKey, cfg.LLMModel)
	memory := mind.NewMemoryManager(store, cfg.ShortTermSize)

	bot, err := discord.NewBot(cfg)
	if err != nil {
		log.Fatal(err)
	}

	params := mind.DefaultParams()
	params.MotivationThreshold = cfg.MotivationThreshold
	params.MaxConsecutiveInterventions = cfg.MaxConsecutiveInterventions
	params.Cooldown = cfg.MinInterventionInterval()
	params.PoolCapacity = cfg.PoolCapacity
	params.ReservationCap = cfg.ReservationCap
	params.Reactive = cfg.Condition == config.ConditionReactive
	params.AIName = cfg.AIName
	params.Persona = cfg.AIPersona

	engine := mind.NewEngine(params, provider, bot, memory, research)
	triggers := mind.NewTriggerManager(
		cfg.Condition == config.ConditionProactive,
		cfg.ThoughtInterval(),
		cfg.SilenceTimeout(),
		engine.HandleTrigger,
	)
	defer triggers.Close()
	bot.SetTriggers(triggers, engine.Teardown)

	log.Printf("[INFO] session=%s condition=%s threshold=%.1f", sessionID, cfg.Condition, cfg.MotivationThreshold)

	errCh := make(chan error, 1)
	go func() {
		errCh <- bot.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	}

	log.Println("[INFO] Bot exited cleanly")
}
