package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"users/internal/config"
	"users/internal/mail"
	"users/internal/observability/logging"
	"users/internal/observability/metrics"
	"users/internal/service"
	impl "users/internal/service/impl"
	"users/internal/store"
	httpx "users/internal/transport/http"
	"users/pkg/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	metrics.MustRegister(cfg.ServiceName)

	logger.Info("starting service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1) DB
	gdb, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		logger.Error("gorm open", "error", err)
		os.Exit(1)
	}
	st := store.New(gdb)
	if cfg.AutoMigrate {
		if err := st.Migrate(ctx); err != nil {
			logger.Error("migrate", "error", err)
			os.Exit(1)
		}
	}

	// 2) Services
	ts, err := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:           cfg.Issuer,
		ActivationSecret: cfg.ActivationSecret,
		AccessSecret:     cfg.AccessSecret,
		RefreshSecret:    cfg.RefreshSecret,
		ActivationTTL:    cfg.ActivationTTL,
		AccessTTL:        cfg.AccessTTL,
		RefreshTTL:       cfg.RefreshTTL,
	})
	if err != nil {
		logger.Error("token service", "error", err)
		os.Exit(1)
	}
	pw := impl.NewPasswordServiceBcrypt(cfg.BcryptCost)

	mailer, err := newMailer(ctx, cfg)
	if err != nil {
		logger.Error("mailer", "error", err)
		os.Exit(1)
	}

	us := impl.NewUserServiceImpl(st, pw, ts, mailer)
	guard := impl.NewGuardImpl(st, ts)

	// 3) HTTP
	router := httpx.NewRouter(httpx.Deps{
		Users:       us,
		Guard:       guard,
		DB:          st,
		CORSOrigins: cfg.CORSOrigins,
		TrustProxy:  cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("users service listening", "addr", srv.Addr, "issuer", cfg.Issuer)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}
}

// newMailer builds the template chain (directory, bucket, embedded) and an SMTP
// mailer. Without SMTP settings, mail is rendered and logged instead.
func newMailer(ctx context.Context, cfg config.Config) (service.EmailService, error) {
	var sources []mail.Source
	if cfg.TemplateDir != "" {
		sources = append(sources, mail.FSSource{FS: os.DirFS(cfg.TemplateDir)})
	}
	if cfg.TemplateBucket != "" {
		s3src, err := mail.NewS3Source(ctx, mail.S3Config{
			Bucket:    cfg.TemplateBucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		sources = append(sources, s3src)
	}
	sources = append(sources, mail.EmbeddedSource())
	renderer := mail.NewRenderer(sources...)

	m, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Service:  cfg.SMTPService,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
		Brand:    cfg.MailFromName,
	}, renderer)
	if errors.Is(err, mail.ErrNoSMTPHost) {
		slog.Warn("no SMTP configured, mail will be logged only")
		return mail.NewLogMailer(renderer, cfg.MailFromName), nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
