package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/boardhole/internal/config"
	"github.com/dropDatabas3/boardhole/internal/email"
	httpserver "github.com/dropDatabas3/boardhole/internal/http"
	"github.com/dropDatabas3/boardhole/internal/http/handlers"
	"github.com/dropDatabas3/boardhole/internal/i18n"
	"github.com/dropDatabas3/boardhole/internal/metrics"
	"github.com/dropDatabas3/boardhole/internal/observability/logger"
	"github.com/dropDatabas3/boardhole/internal/outbox"
	"github.com/dropDatabas3/boardhole/internal/rate"
	"github.com/dropDatabas3/boardhole/internal/store"
	pgstore "github.com/dropDatabas3/boardhole/internal/store/pg"
	"github.com/dropDatabas3/boardhole/internal/verification"
)

const version = "0.3.0"

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
		flagMigrate    = flag.Bool("migrate", false, "aplicar migraciones al arrancar (solo postgres)")
	)
	flag.Parse()

	if *flagEnvFile != "" && fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" && fileExists("configs/config.yaml") {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "boardhole",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	lg := logger.L()

	ctx := context.Background()

	// ─── Persistencia ───
	st, err := store.Open(ctx, cfg)
	if err != nil {
		lg.Fatal("store open failed", logger.Err(err))
	}
	defer st.Close()

	if *flagMigrate {
		if pgs, ok := st.(*pgstore.Store); ok {
			applied, err := pgs.Migrate(ctx)
			if err != nil {
				lg.Fatal("migrations failed", logger.Err(err))
			}
			lg.Info("migrations applied", logger.Any("versions", applied))
		} else {
			lg.Warn("migrate flag ignored: storage driver has no migrations")
		}
	}

	// ─── Métricas ───
	if err := metrics.RegisterOutbox(nil); err != nil {
		lg.Fatal("metrics registration failed", logger.Err(err))
	}

	// ─── Outbox (motor de reintentos) ───
	outboxSvc, err := outbox.NewService(st.Outbox(), outbox.Config{
		MaxRetryCount: cfg.Outbox.MaxRetryCount,
		RetentionDays: cfg.Outbox.RetentionDays,
	})
	if err != nil {
		lg.Fatal("outbox service failed", logger.Err(err))
	}

	// ─── Transporte de email ───
	var sender email.Sender
	if cfg.SMTP.Host != "" {
		s := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.User, cfg.SMTP.Pass)
		s.TLSMode = cfg.SMTP.TLSMode
		s.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		s.Timeout = cfg.Outbox.SendTimeout
		sender = s
	} else {
		lg.Warn("smtp host not configured, using noop sender")
		sender = &email.NoopSender{}
	}

	// Transporte para los flujos de usuario: los fallos de envío caen al
	// outbox y el request sigue adelante.
	reliableMailer, err := email.NewService(email.ServiceConfig{
		Sender:    sender,
		BaseURL:   cfg.SMTP.BaseURL,
		VerifyTTL: cfg.Verification.Expiration,
		OnSendFailure: func(ctx context.Context, msg email.EmailMessage, sendErr error) error {
			if err := outboxSvc.SaveFailedEmail(ctx, msg, sendErr); err != nil {
				return err
			}
			metrics.OutboxEmailsQueued.Inc()
			return nil
		},
	})
	if err != nil {
		lg.Fatal("email service failed", logger.Err(err))
	}

	// Transporte para el sweeper: sin hook, el fallo se registra como
	// intento fallido sobre la fila ya existente.
	rawMailer, err := email.NewService(email.ServiceConfig{
		Sender:    sender,
		BaseURL:   cfg.SMTP.BaseURL,
		VerifyTTL: cfg.Verification.Expiration,
	})
	if err != nil {
		lg.Fatal("email service failed", logger.Err(err))
	}

	// ─── Limitador de reenvíos ───
	var limiter rate.Limiter
	switch cfg.Cache.Kind {
	case "redis":
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Cache.Redis.Addr,
			DB:   cfg.Cache.Redis.DB,
		})
		defer func() { _ = client.Close() }()
		limiter = rate.NewRedisLimiter(client, cfg.Cache.Redis.Prefix, cfg.Verification.Resend.Limit, cfg.Verification.Resend.Window)
	default:
		limiter = rate.NewMemoryLimiter("", cfg.Verification.Resend.Limit, cfg.Verification.Resend.Window)
	}

	// ─── Verificación ───
	catalog := i18n.New(cfg.App.Lang)
	verifSvc, err := verification.NewService(
		st.Verifications(), st.Users(), reliableMailer, catalog, limiter,
		verification.Config{Expiration: cfg.Verification.Expiration},
	)
	if err != nil {
		lg.Fatal("verification service failed", logger.Err(err))
	}

	// ─── Sweeper ───
	var sweeper *outbox.Sweeper
	if cfg.Outbox.Enabled {
		sweeper = outbox.NewSweeper(outboxSvc, rawMailer, outbox.SweeperConfig{
			SweepInterval:   cfg.Outbox.SweepInterval,
			CleanupInterval: cfg.Outbox.CleanupInterval,
			StatsInterval:   cfg.Outbox.StatsInterval,
			WorkerCount:     cfg.Outbox.WorkerCount,
			SendTimeout:     cfg.Outbox.SendTimeout,
		})
		go sweeper.Run(logger.ToContext(ctx, lg))
	} else {
		lg.Warn("outbox sweeper disabled by config")
	}

	// ─── HTTP ───
	srv := httpserver.NewServer(cfg.Server.Addr, httpserver.ServerDeps{
		Verification: &handlers.VerificationHandler{Svc: verifSvc},
		Outbox:       &handlers.OutboxHandler{Svc: outboxSvc, Sweeper: sweeper},
		Health:       &handlers.HealthHandler{Store: st, Version: version},
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	// ─── Apagado ordenado ───
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			lg.Fatal("http server failed", logger.Err(err))
		}
	case sig := <-sigCh:
		lg.Info("shutdown signal received", logger.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("http shutdown failed", logger.Err(err))
	}
	if sweeper != nil {
		if err := sweeper.Shutdown(shutdownCtx); err != nil {
			lg.Error("sweeper shutdown failed", logger.Err(err))
		}
	}
	lg.Info("shutdown complete")
}
