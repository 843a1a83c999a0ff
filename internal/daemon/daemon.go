package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bahi-ledger/bahi/internal/api"
	"github.com/bahi-ledger/bahi/internal/app/otp"
	"github.com/bahi-ledger/bahi/internal/app/reconcile"
	"github.com/bahi-ledger/bahi/internal/app/reminder"
	"github.com/bahi-ledger/bahi/internal/domain"
	"github.com/bahi-ledger/bahi/internal/infra/gateway"
	"github.com/bahi-ledger/bahi/internal/infra/messaging"
	"github.com/bahi-ledger/bahi/internal/infra/sqlite"
)

// Run starts the daemon with the given config and blocks until the
// process receives SIGINT or SIGTERM.
func Run(cfg Config) error {
	db, err := sqlite.Open(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	log.Printf("storage ready at %s", cfg.Storage.Dir)

	var gw domain.PaymentGateway = gateway.New(gateway.Config{
		KeyID:     cfg.Gateway.KeyID,
		KeySecret: cfg.Gateway.KeySecret,
		BaseURL:   cfg.Gateway.BaseURL,
	})
	if !cfg.Gateway.Enabled() {
		log.Println("payment gateway disabled (no credentials); manual payments only")
	}

	var messenger domain.Messenger
	if cfg.Messaging.Enabled() {
		messenger = messaging.New(messaging.Config{
			AccountSID: cfg.Messaging.AccountSID,
			AuthToken:  cfg.Messaging.AuthToken,
			BaseURL:    cfg.Messaging.BaseURL,
			SMSFrom:    cfg.Messaging.SMSFrom,
			WAFrom:     cfg.Messaging.WhatsAppFrom,
		})
	} else {
		log.Println("messaging disabled (no credentials); reminders and OTPs will not be delivered")
	}

	rec := reconcile.New(db, gw, messenger)
	sweeper := reminder.New(db, messenger, time.Duration(cfg.Sweeper.OverdueAfterDays)*24*time.Hour)
	gate := otp.New(otp.NewMemoryStore(), db, messenger, time.Duration(cfg.OTP.TTLMinutes)*time.Minute)

	srv := api.NewServer(db, rec, sweeper, gate)
	if cfg.API.Metrics {
		srv.EnableMetrics()
	}
	if cfg.OTP.ExposeCodes {
		log.Println("WARNING: OTP codes exposed in API responses; do not use in production")
		srv.ExposeOTPCodes()
	}
	if cfg.OTP.RequireForRegistration {
		srv.RequireOTPForRegistration()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Sweeper.Enabled {
		go sweeper.Start(ctx)
	}

	httpSrv := &http.Server{
		Addr:    cfg.API.Addr(),
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("API listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("daemon stopped")
	return nil
}
