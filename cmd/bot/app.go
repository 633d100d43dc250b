package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketbot/cmd/bot/config"
	"github.com/Jacobbrewer1/ticketbot/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/ticketbot/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketbot/pkg/intake"
	"github.com/Jacobbrewer1/ticketbot/pkg/lifecycle"
	"github.com/Jacobbrewer1/ticketbot/pkg/logging"
	"github.com/Jacobbrewer1/ticketbot/pkg/platform"
	"github.com/Jacobbrewer1/ticketbot/pkg/provision"
	"github.com/Jacobbrewer1/ticketbot/pkg/request"
	"github.com/Jacobbrewer1/ticketbot/pkg/transcript"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

// shutdownTimeout bounds the monitoring server shutdown.
const shutdownTimeout = 5 * time.Second

type App struct {
	// is the logger.
	*slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// idx is the name to ID index shared by the provisioner.
	idx *provision.Index

	// prov finds and creates the roles and channels tickets need.
	prov *provision.Provisioner

	// interactions routes interactions to the intake flow and the lifecycle controller.
	interactions *interactionRouter

	// commands registers the slash commands per guild.
	commands *commandRegistry
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		Logger: l,
		r:      r,
	}
}

// Run connects to Discord and serves the monitoring endpoints until ctx is done.
func (a *App) Run(ctx context.Context) error {
	catalogue, err := loadCatalogue(config.CategoriesFile)
	if err != nil {
		return fmt.Errorf("error loading ticket categories: %w", err)
	}

	if err := config.ConnectMongo(a.Logger); err != nil {
		return err
	}

	// Register bot.
	if err := a.RegisterBot(ctx, catalogue); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.RegisterDiscordHandlers()

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	<-ctx.Done()
	a.Info("Received shutdown signal")
	return a.ShutdownHook()
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	var errs []error

	// Unregister slash commands.
	if err := a.commands.UnregisterAll(); err != nil {
		errs = append(errs, fmt.Errorf("error unregistering slash commands: %w", err))
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.svr.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error shutting down monitoring server: %w", err))
	}

	if err := a.idx.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing index: %w", err))
	}

	if dataaccess.MongoDB != nil {
		if err := dataaccess.MongoDB.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error disconnecting from mongo: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RegisterBot creates the Discord session and everything that works through it.
func (a *App) RegisterBot(ctx context.Context, catalogue *intake.Catalogue) error {
	// Default the number of guilds to 0.
	monitoring.TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + config.BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Create event notifier. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.idx, err = provision.NewIndex(ctx, provision.DefaultIndexLifetime)
	if err != nil {
		return fmt.Errorf("error creating index: %w", err)
	}

	p := platform.NewSession(dg)
	tickets := dataaccess.NewTicketDal(a.Logger)
	reader := transcript.NewReader(p, transcript.WithMaxMessages(config.TranscriptMaxMessages))

	a.prov = provision.NewProvisioner(a.Logger, p, a.idx)
	a.interactions = newInteractionRouter(
		a.Logger,
		p,
		intake.NewFlow(a.Logger, p, a.prov, tickets, catalogue),
		lifecycle.NewController(a.Logger, p, a.prov, tickets, reader),
		config.HandlerTimeout,
		config.CloseTimeout,
	)
	a.commands = newCommandRegistry(a.Logger, sessionCommands{s: dg}, config.ApplicationId)

	a.s = dg
	return nil
}

func (a *App) runServer() {
	go func() {
		a.Info("Starting monitoring server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, middlewareHttp(a.Logger, promhttp.Handler().ServeHTTP)).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.Logger, a.healthCheck())).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:              ":" + config.MonitoringPort,
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (a *App) RegisterDiscordHandlers() {
	// Logged in.
	a.s.AddHandler(a.readyHandler())

	// Bot joined guild, or the guild became available on start up.
	a.s.AddHandler(a.guildJoinedHandler())

	// Bot left guild.
	a.s.AddHandler(a.guildLeaveHandler())

	// Channels and roles changed by someone else.
	a.s.AddHandler(a.channelDeleteHandler())
	a.s.AddHandler(a.channelUpdateHandler())
	a.s.AddHandler(a.roleDeleteHandler())
	a.s.AddHandler(a.roleUpdateHandler())

	// Interaction create handler.
	a.s.AddHandler(a.interactions.handler())
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				monitoring.TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				monitoring.TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			monitoring.TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) Session() *discordgo.Session {
	return a.s
}
