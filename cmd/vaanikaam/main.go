package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"vaanikaam/internal/config"
	"vaanikaam/internal/identity"
	"vaanikaam/internal/observability/logging"
	"vaanikaam/internal/observability/metrics"
	"vaanikaam/internal/service"
	"vaanikaam/internal/service/impl"
	"vaanikaam/internal/store"
	transport "vaanikaam/internal/transport/http"
	"vaanikaam/pkg/db"
)

const serviceName = "vaanikaam"

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)

	metrics.MustRegister()

	gormDB, err := db.OpenGorm(db.Config{DSN: cfg.DatabaseURL, LogSQL: cfg.LogSQL})
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	st := store.New(gormDB)
	if err := st.AutoMigrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	hasher := impl.NewBcryptHasher(cfg.BcryptCost)
	tokens := impl.NewTokenServiceHS256(impl.TokenConfig{
		Issuer:     cfg.Issuer,
		TTL:        cfg.TokenTTL,
		SigningKey: []byte(cfg.SigningKey),
	})
	otp := impl.NewOtpService(st, hasher, cfg.OtpTTL)

	phoneIdentity := identity.NewPhoneIdentityVerifier(identity.ProviderConfig{
		VerifyURL:  cfg.IdpVerifyURL,
		ServiceKey: cfg.IdpServiceKey,
	})

	var sms service.OtpDeliverer = identity.DebugDeliverer{}
	if cfg.SMSConfigured() {
		sms = identity.NewProviderSMSDeliverer(identity.SMSConfig{
			SendURL:    cfg.IdpSMSURL,
			ServiceKey: cfg.IdpServiceKey,
		})
	} else {
		slog.Warn("sms gateway not configured, otp delivery is debug-only")
	}

	var botCheck service.BotCheckVerifier
	if cfg.BotCheckSecret != "" {
		botCheck = identity.NewBotCheckVerifier(identity.BotCheckConfig{
			VerifyURL: cfg.BotCheckVerifyURL,
			Secret:    cfg.BotCheckSecret,
		})
	} else {
		slog.Warn("bot-check secret not configured, bot check disabled")
	}

	auth := impl.NewAuthServiceImpl(st, hasher, tokens, otp, phoneIdentity, sms, cfg.OtpDebug)

	handler := transport.NewHandler(auth, botCheck)
	router := transport.NewRouter(transport.RouterConfig{CORSOrigins: cfg.CORSOrigins}, handler, tokens, st.Users())

	go purgeExpiredChallenges(context.Background(), st)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("server listening", "addr", cfg.Addr, "environment", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// purgeExpiredChallenges deletes expired OTP rows on an interval. Expired
// codes are already inert at verify time; this just keeps the table small.
func purgeExpiredChallenges(ctx context.Context, st *store.Store) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rows, err := st.OtpChallenges().PurgeExpired(ctx, time.Now().UTC())
			if err != nil {
				slog.Warn("otp purge failed", "error", err)
				continue
			}
			if rows > 0 {
				slog.Debug("purged expired otp challenges", "rows", rows)
			}
		}
	}
}
