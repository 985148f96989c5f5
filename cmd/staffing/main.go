package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gohttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/pharmacy-staffing/internal/application"
	"github.com/example/pharmacy-staffing/internal/config"
	"github.com/example/pharmacy-staffing/internal/http"
	"github.com/example/pharmacy-staffing/internal/mailer"
	"github.com/example/pharmacy-staffing/internal/notice"
	"github.com/example/pharmacy-staffing/internal/persistence/sqlite"
	"github.com/example/pharmacy-staffing/internal/recurrence"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// A missing .env file is fine; environment variables win regardless.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := sqlite.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	accounts := sqlite.NewAccountRepository(pool)
	sessions := sqlite.NewSessionRepository(pool)
	postings := sqlite.NewPostingRepository(pool)
	applications := sqlite.NewApplicationRepository(pool)
	engagements := sqlite.NewEngagementRepository(pool)
	fees := sqlite.NewFeeRepository(pool)
	workShifts := sqlite.NewWorkShiftRepository(pool)
	conversations := sqlite.NewConversationRepository(pool)
	notifications := sqlite.NewNotificationRepository(pool)

	credentialStore := newCredentialStoreAdapter(accounts)
	identityDirectory := newIdentityDirectoryAdapter(accounts)
	sessionRepo := newSessionRepositoryAdapter(sessions)
	postingRepo := newPostingRepositoryAdapter(postings)
	applicationRepo := newApplicationRepositoryAdapter(applications)
	engagementRepo := newEngagementRepositoryAdapter(engagements)
	feeRepo := newFeeRepositoryAdapter(fees)
	workShiftRepo := newWorkShiftRepositoryAdapter(workShifts)
	conversationRepo := newConversationRepositoryAdapter(conversations)
	notificationRepo := newNotificationRepositoryAdapter(notifications)

	notifier := application.NewRepositoryNotifier(notificationRepo, uuid.NewString, time.Now)
	recurrenceEngine := recurrence.NewEngine(nil)
	documents := notice.NewGenerator(cfg.DocumentsDir)
	invoiceMailer := mailer.NewMailer(cfg.SMTPHost, cfg.SMTPFrom, logger)

	authService := application.NewAuthService(credentialStore, sessionRepo, nil, uuid.NewString, time.Now, cfg.SessionTTL, logger)
	postingService := application.NewPostingService(postingRepo, applicationRepo, uuid.NewString, time.Now, logger)
	applicationService := application.NewApplicationService(applicationRepo, postingRepo, engagementRepo, identityDirectory, notifier, uuid.NewString, time.Now, logger)
	engagementService := application.NewEngagementService(application.EngagementServiceConfig{
		Engagements:  engagementRepo,
		Applications: applicationRepo,
		Postings:     postingRepo,
		Fees:         feeRepo,
		Identities:   identityDirectory,
		Documents:    documents,
		Mail:         invoiceMailer,
		Notifier:     notifier,
		Recurrence:   recurrenceEngine,
		FeeRate:      cfg.FeeRate,
		IDGenerator:  uuid.NewString,
		Now:          time.Now,
		Logger:       logger,
	})
	feeService := application.NewFeeService(feeRepo, engagementRepo, notifier, time.Now, logger)
	workShiftService := application.NewWorkShiftService(workShiftRepo, engagementRepo, recurrenceEngine, uuid.NewString, time.Now, logger)
	conversationService := application.NewConversationService(conversationRepo, applicationRepo, postingRepo, uuid.NewString, time.Now, logger)
	notificationService := application.NewNotificationService(notificationRepo, time.Now, logger)

	router := http.NewRouter(http.RouterConfig{
		Auth:          http.NewAuthHandler(authService, logger),
		Postings:      http.NewPostingHandler(postingService, logger),
		Applications:  http.NewApplicationHandler(applicationService, logger),
		Engagements:   http.NewEngagementHandler(engagementService, logger),
		Shifts:        http.NewShiftHandler(workShiftService, logger),
		Fees:          http.NewFeeHandler(feeService, logger),
		Conversations: http.NewConversationHandler(conversationService, logger),
		Notifications: http.NewNotificationHandler(notificationService, logger),
		Middleware: []func(gohttp.Handler) gohttp.Handler{
			http.RequestLogger(logger),
			sessionGate(http.RequireSession(authService, logger)),
		},
	})

	server := &gohttp.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, gohttp.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return <-errCh
}

// sessionGate applies the session middleware to everything except the login
// endpoint, which must remain reachable without a token.
func sessionGate(requireSession func(gohttp.Handler) gohttp.Handler) func(gohttp.Handler) gohttp.Handler {
	return func(next gohttp.Handler) gohttp.Handler {
		protected := requireSession(next)
		return gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
			if r.Method == gohttp.MethodPost && r.URL.Path == "/sessions" {
				next.ServeHTTP(w, r)
				return
			}
			protected.ServeHTTP(w, r)
		})
	}
}
