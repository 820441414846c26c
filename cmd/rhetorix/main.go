package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/supabase-community/supabase-go"

	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/config"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/debate"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/gateway"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/judge"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/models"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/profile"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/store"
	"github.com/PIYUSH-BAMNIA-25/-rhetorix-sub000/internal/topic"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var (
		configPath  = flag.String("config", "", "path to YAML config (optional)")
		sessionFlag = flag.String("session", "", "session id to join; empty with -create starts a new session")
		selfFlag    = flag.String("self", "", "local participant id (required)")
		selfName    = flag.String("name", "debater", "local participant display name")
		create      = flag.Bool("create", false, "create the session before joining it")
		oppFlag     = flag.String("opponent", "", "opponent participant id (required with -create)")
		oppName     = flag.String("opponent-name", "opponent", "opponent display name")
		oppType     = flag.String("opponent-type", "human", "opponent type: human | ai")
		topicTitle  = flag.String("topic", "This house believes technology does more good than harm", "debate topic (with -create)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	selfID, err := uuid.Parse(*selfFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("-self must be a valid UUID")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, watcher, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up session store")
	}
	defer cleanup()

	sessionID, err := resolveSession(ctx, st, cfg, *sessionFlag, *create, selfID, *selfName, *oppFlag, *oppName, *topicTitle)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve session")
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("participant_id", selfID.String()).
		Str("store", cfg.Store.Driver).
		Msg("starting debate client")

	gen := judge.NewClient(judge.ClientConfig{
		BaseURL: cfg.Judge.BaseURL,
		APIKey:  cfg.Judge.APIKey,
		Model:   cfg.Judge.Model,
		Timeout: cfg.JudgeTimeout(),
	})
	clock := clockwork.NewRealClock()
	turnJudge := judge.NewTurnJudge(gen, judge.Config{
		MaxAttempts: cfg.Judge.MaxAttempts,
		Backoff:     cfg.JudgeBackoff(),
		Timeout:     cfg.JudgeTimeout(),
		Stream:      cfg.Judge.Stream,
	}, clock)

	var events debate.Events = debate.NopEvents{}
	if cfg.Gateway.Enabled {
		cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())
		go cm.Start(ctx)

		server := gateway.NewServer(cm, cfg.Gateway.Port)
		go func() {
			log.Info().Str("addr", server.Addr).Msg("spectator gateway starting")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("spectator gateway failed")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("spectator gateway shutdown failed")
			}
		}()

		events = gateway.NewBroadcaster(cm, sessionID)
	}

	sink := buildProfileSink(cfg)

	coord := debate.NewCoordinator(debate.CoordinatorConfig{
		Store:        st,
		Watcher:      watcher,
		Judge:        turnJudge,
		Config:       cfg,
		Clock:        clock,
		Events:       events,
		Profile:      sink,
		SelfID:       selfID,
		OpponentType: *oppType,
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- coord.Run(ctx, sessionID, selfID)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
		<-runErr
	case err := <-runErr:
		if err != nil {
			log.Fatal().Err(err).Msg("debate client failed")
		}
	}

	if out, ok := coord.Outcome(); ok {
		ev := log.Info().
			Bool("draw", out.Draw).
			Bool("forfeit", out.Forfeit)
		if out.WinnerID != uuid.Nil {
			ev = ev.Str("winner_id", out.WinnerID.String())
		}
		ev.Msg("final verdict")
	}
	log.Info().Msg("debate client shutdown complete")
}

// buildStore constructs the configured store driver and, when the driver has
// a push surface, the matching watcher.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, store.Watcher, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		mem := store.NewMemoryStore()
		return mem, mem, func() {}, nil

	case "supabase":
		st, err := store.NewSupabaseStore(store.SupabaseConfig{
			URL:    cfg.Store.SupabaseURL,
			APIKey: cfg.Store.SupabaseKey,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		watcher, closeWatcher := optionalNATSWatcher(cfg.Store.NATSURL)
		return st, watcher, closeWatcher, nil

	case "postgres":
		st, err := store.NewPostgresStore(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		watcher, err := store.NewNotifyWatcher(store.DefaultNotifyConfig(cfg.Store.PostgresDSN))
		if err != nil {
			log.Warn().Err(err).Msg("LISTEN/NOTIFY unavailable, polling only")
			return st, nil, func() { st.Close() }, nil
		}
		go func() {
			if err := watcher.Start(ctx); err != nil {
				log.Error().Err(err).Msg("notify watcher stopped")
			}
		}()
		return st, watcher, func() {
			watcher.Close()
			st.Close()
		}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		st := store.NewRedisStore(client)
		watcher, closeWatcher := optionalNATSWatcher(cfg.Store.NATSURL)
		return st, watcher, func() {
			closeWatcher()
			st.Close()
		}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func optionalNATSWatcher(natsURL string) (store.Watcher, func()) {
	if natsURL == "" {
		return nil, func() {}
	}
	watcher, err := store.NewNATSWatcher(natsURL)
	if err != nil {
		log.Warn().Err(err).Msg("NATS unavailable, polling only")
		return nil, func() {}
	}
	return watcher, watcher.Close
}

// buildTopicProvider serves topics from the topic table when Supabase is
// configured, otherwise the fixed topic from the command line.
func buildTopicProvider(cfg *config.Config, topicTitle string) topic.Provider {
	if cfg.Store.SupabaseURL != "" {
		client, err := supabase.NewClient(cfg.Store.SupabaseURL, cfg.Store.SupabaseKey, nil)
		if err == nil {
			return topic.NewSupabaseProvider(client, rand.New(rand.NewSource(time.Now().UnixNano())))
		}
		log.Warn().Err(err).Msg("topic provider unavailable, using the default topic")
	}
	return topic.StaticProvider{
		T: models.Topic{Title: topicTitle},
		S: models.SideFor,
	}
}

func buildProfileSink(cfg *config.Config) profile.Sink {
	if cfg.Store.SupabaseURL == "" {
		return profile.NopSink{}
	}
	sink, err := profile.NewSupabaseSinkFromConfig(cfg.Store.SupabaseURL, cfg.Store.SupabaseKey)
	if err != nil {
		log.Warn().Err(err).Msg("profile sink unavailable, results will not be saved")
		return profile.NopSink{}
	}
	return sink
}

// resolveSession returns the session to join, creating it first when asked.
// Creation and joining race safely: the create is an insert that fails on a
// duplicate id, and both clients converge by reading the same row.
func resolveSession(ctx context.Context, st store.Store, cfg *config.Config, sessionFlag string, create bool, selfID uuid.UUID, selfName, oppFlag, oppName, topicTitle string) (uuid.UUID, error) {
	if !create {
		if sessionFlag == "" {
			return uuid.Nil, fmt.Errorf("-session is required unless -create is set")
		}
		return uuid.Parse(sessionFlag)
	}

	oppID, err := uuid.Parse(oppFlag)
	if err != nil {
		return uuid.Nil, fmt.Errorf("-opponent must be a valid UUID with -create: %w", err)
	}

	sessionID := uuid.New()
	if sessionFlag != "" {
		if sessionID, err = uuid.Parse(sessionFlag); err != nil {
			return uuid.Nil, fmt.Errorf("invalid -session id: %w", err)
		}
	}

	provider := buildTopicProvider(cfg, topicTitle)
	tpc, selfSide, err := provider.Topic(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("topic lookup failed, using the default topic")
		tpc, selfSide = models.Topic{Title: topicTitle}, models.SideFor
	}

	now := time.Now().UTC()
	sess := &models.Session{
		ID:    sessionID,
		Topic: tpc,
		Participants: [2]models.Participant{
			{ID: selfID, DisplayName: selfName, Side: selfSide},
			{ID: oppID, DisplayName: oppName, Side: selfSide.Opposite()},
		},
		Status:        models.SessionStatusPrep,
		CurrentTurnID: selfID,
		TurnNumber:    0,
		RemainingSec:  cfg.Debate.DurationSec,
		PrepSec:       cfg.Debate.PrepSec,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := st.CreateSession(ctx, sess); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Info().
		Str("session_id", sessionID.String()).
		Str("topic", topicTitle).
		Msg("session created")
	return sessionID, nil
}
