package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/warranty-claims/internal/authz"
	"github.com/iliyamo/warranty-claims/internal/config"
	"github.com/iliyamo/warranty-claims/internal/database"
	"github.com/iliyamo/warranty-claims/internal/handler"
	"github.com/iliyamo/warranty-claims/internal/identity"
	"github.com/iliyamo/warranty-claims/internal/logger"
	"github.com/iliyamo/warranty-claims/internal/middleware"
	"github.com/iliyamo/warranty-claims/internal/notify"
	"github.com/iliyamo/warranty-claims/internal/orchestrator"
	"github.com/iliyamo/warranty-claims/internal/queue"
	"github.com/iliyamo/warranty-claims/internal/repository"
	"github.com/iliyamo/warranty-claims/internal/router"
	"github.com/iliyamo/warranty-claims/internal/storage"
	"github.com/iliyamo/warranty-claims/internal/warranty"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()
	log := logger.Init(cfg.Env, cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	rdb := config.NewRedisClient(log) // nil disables rate limiting and resend cooldown
	if rdb != nil {
		defer rdb.Close()
	}

	brokerURL := queue.BrokerURL()
	publisher := queue.NewPublisher(brokerURL, log)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := queue.NewActivityConsumer(brokerURL, cfg.ActivityDir, log).Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("activity consumer stopped", zap.Error(err))
		}
	}()

	// ----- notifications -----
	ncfg := config.LoadNotifyConfig()
	var email notify.EmailSender
	if ncfg.SMTPHost != "" {
		email = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     ncfg.SMTPHost,
			Port:     ncfg.SMTPPort,
			Username: ncfg.SMTPUser,
			Password: ncfg.SMTPPass,
			From:     ncfg.From,
			Timeout:  ncfg.Timeout,
		})
	} else {
		log.Warn("SMTP_HOST not set; emails will be skipped")
	}
	dispatcher := notify.NewDispatcher(email, publisher, notify.Options{
		OperatorEmail: ncfg.OperatorEmail,
		Parallelism:   ncfg.Parallelism,
		Retry:         notify.RetryPolicy{MaxAttempts: ncfg.MaxAttempts, Backoff: notify.Exponential(ncfg.BaseBackoff)},
	}, log)

	// ----- attachments -----
	var files orchestrator.FileStore
	if scfg := config.LoadStorageConfig(); scfg.Endpoint != "" {
		ms, err := storage.NewMinioStore(scfg.Endpoint, scfg.AccessKey, scfg.SecretKey, scfg.Bucket, scfg.PublicURL, scfg.UseSSL)
		if err != nil {
			log.Fatal("object storage unavailable", zap.Error(err))
		}
		files = ms
	} else {
		log.Warn("MINIO_ENDPOINT not set; submissions with attachments will be refused")
	}

	// ----- core -----
	dir := repository.NewDirectory(db)
	otp := config.LoadOTPConfig()
	prov := identity.NewProvisioner(identity.Stores{
		Accounts: dir.AccountRepo,
		Vendors:  dir.VendorRepo,
		Pending:  repository.NewPendingRepo(db),
		OTP:      repository.NewOTPRepo(db),
		Tokens:   repository.NewTokenRepo(db),
		Staff:    dir.StaffRepo,
	}, dispatcher, rdb, identity.Config{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
		OTPLength:      otp.Length,
		OTPTTL:         otp.TTL,
		OTPMaxAttempts: otp.MaxAttempts,
		PendingTTL:     otp.PendingTTL,
		ResendCooldown: otp.ResendCooldown,
	}, log)

	orch := orchestrator.New(orchestrator.Deps{
		Ledger:   warranty.NewLedger(repository.NewWarrantyRepo(db)),
		Authz:    authz.NewResolver(dir),
		Dir:      dir,
		Files:    files,
		Activity: publisher,
		Notify:   dispatcher,
	}, log)

	// ----- http -----
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))

	authH := handler.NewAuthHandler(prov)
	warrantyH := handler.NewWarrantyHandler(orch)

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, authH, cfg.JWTSecret, middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))
	router.RegisterWarranties(e, warrantyH, cfg.JWTSecret)
	router.RegisterVendor(e, warrantyH, handler.NewStaffHandler(prov), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(prov), warrantyH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	dispatcher.Wait() // let in-flight emails finish
	log.Info("stopped")
}
