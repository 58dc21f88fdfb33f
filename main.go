package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"werewolfbot/internal/game"
)

// statusRecorder remembers the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs one line per request. WebSocket upgrades are passed through
// untouched because they need the original writer's Hijacker.
func logRequests(log *zap.SugaredLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			log.Debugf("%s %s [WebSocket upgrade]", r.Method, r.URL.String())
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debugf("%s %s %d %s", r.Method, r.URL.String(), rec.status, time.Since(start).Round(time.Millisecond))
	})
}

// app holds the wired components of a running bot.
type app struct {
	cfg      AppConfig
	log      *zap.SugaredLogger
	store    *Store
	hub      *Hub
	bot      *Bot
	narrator *narratingNotifier
	registry *game.Registry
}

// newApp wires the store, transport, spectator hub and storyteller around a
// session registry. api may be a fake in tests.
func newApp(cfg AppConfig, api chatAPI, log *zap.SugaredLogger) (*app, error) {
	catalog := game.DefaultCatalog()

	store, err := openStore(cfg.DB, catalog, log)
	if err != nil {
		return nil, err
	}
	presets, err := loadPresets(cfg.PresetsFile)
	if err != nil {
		store.Close()
		return nil, err
	}
	configs := &channelConfigs{base: cfg.matchDefaults(), presets: presets, store: store, catalog: catalog, log: log}

	teller, err := newStoryteller(cfg, log)
	if err != nil {
		log.Warnf("Storyteller: %v", err)
	}

	a := &app{cfg: cfg, log: log, store: store, hub: newHub(log)}
	a.bot = newBot(api, cfg, catalog, log)
	a.bot.store = store
	a.bot.lobby = &Lobby{store: store, configs: configs, names: a.bot, log: log}

	var notifier game.Notifier = &spectatedNotifier{Notifier: a.bot, hub: a.hub}
	if teller != nil {
		a.narrator = newNarratingNotifier(notifier, teller, a.hub, log)
		notifier = a.narrator
	}

	a.registry, err = game.NewRegistry(game.Dependencies{
		Notifier:  notifier,
		Directory: a.bot.lobby,
		Rewards:   store,
		Config:    configs,
		Recorder:  store,
		Catalog:   catalog,
		Logger:    log.Named("game"),
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	a.bot.registry = a.registry
	return a, nil
}

// shutdown aborts running matches and waits for them, then closes the hub and store.
func (a *app) shutdown(ctx context.Context) {
	if err := a.registry.Close(ctx); err != nil {
		a.log.Warnf("Registry close: %v", err)
	}
	if a.narrator != nil {
		a.narrator.wait()
	}
	a.hub.stop()
	if err := a.store.Close(); err != nil {
		a.log.Warnf("Store close: %v", err)
	}
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flags := registerFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, notes := loadConfig(*flags.configPath)
	flags.applyTo(fs, &cfg)

	log, closeLog := newLogger(cfg.toLogConfig())
	defer closeLog()
	for _, n := range notes {
		log.Infof("Config: %s", n)
	}

	if err := run(cfg, log); err != nil {
		log.Errorf("Fatal: %v", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg AppConfig, log *zap.SugaredLogger) error {
	if cfg.DiscordToken == "" {
		return errNoToken
	}
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return err
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	a, err := newApp(cfg, dg, log)
	if err != nil {
		return err
	}
	dg.AddHandler(a.bot.onMessageCreate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := dg.Open(); err != nil {
		a.shutdown(context.Background())
		return err
	}
	log.Infof("Discord session open, prefix %q", cfg.CommandPrefix)

	a.hub.start()
	srv := &http.Server{Addr: cfg.Addr, Handler: logRequests(log, a.hub.routes())}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Spectator feed listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		dg.Close()
		a.shutdown(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
