package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/examdesk/internal/api/http"
	auth "github.com/mind-engage/examdesk/internal/auth/middleware"
	"github.com/mind-engage/examdesk/internal/cache"
	"github.com/mind-engage/examdesk/internal/config"
	"github.com/mind-engage/examdesk/internal/db"
	"github.com/mind-engage/examdesk/internal/exam"
	"github.com/mind-engage/examdesk/internal/examimport"
	"github.com/mind-engage/examdesk/internal/feed"
	"github.com/mind-engage/examdesk/internal/logging"
	"github.com/mind-engage/examdesk/internal/portal"
	"github.com/mind-engage/examdesk/internal/storage"
	syncx "github.com/mind-engage/examdesk/internal/sync"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg := config.FromEnv()
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("examdesk stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	driver := db.Driver(cfg.DBDriver)
	dbh, err := db.Open(openCtx, driver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()
	store := exam.NewSQLStore(dbh, driver)

	admins := auth.NewAdminStore(dbh, driver)
	if cfg.AdminPassHash != "" {
		if err := admins.Seed(openCtx, cfg.AdminEmail, cfg.AdminPassHash); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	} else {
		log.Warn("ADMIN_PASS_HASH not set; no administrator seeded", "email", cfg.AdminEmail)
	}

	// --- Redis (optional) ---
	var (
		rc      *cache.RedisClient
		revoker auth.Revoker
	)
	if cfg.RedisAddr != "" {
		rc, err = cache.NewRedisClient(cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		defer rc.Close()
		revoker = auth.NewRedisRevoker(rc)
	}

	// --- Events ---
	events := syncx.NewEventRepo(dbh, driver)
	var pub syncx.Publisher
	if cfg.AMQPURL != "" {
		p, err := syncx.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("amqp: %w", err)
		}
		defer p.Close()
		pub = p
	}
	recorder := syncx.NewRecorder(events, pub, log)

	// --- Blobs ---
	var bs storage.BlobStore
	switch cfg.BlobDriver {
	case "minio":
		bs, err = storage.NewMinIOStore(openCtx, storage.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
	case "", "fs":
		bs, err = storage.NewFSStore(cfg.BlobBasePath)
	default:
		err = fmt.Errorf("unknown BLOB_DRIVER %q", cfg.BlobDriver)
	}
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	// --- Feed ---
	broker := feed.NewBroker(store, log)
	var notify feed.Notifier = broker
	var relay *feed.RedisRelay
	if rc != nil {
		relay = feed.NewRedisRelay(rc, "", broker, log)
		notify = relay
	}

	svc := portal.NewService(store, notify, portal.Options{
		PublicURL: cfg.PublicURL,
		Location:  cfg.Timezone,
		Events:    recorder,
		Log:       log,
	})
	catalog := portal.NewCatalog(broker, log)
	defer catalog.Close()

	router := api.NewRouter(api.Deps{
		Log:       log,
		Service:   svc,
		Catalog:   catalog,
		Feed:      broker,
		Importer:  examimport.New(svc),
		Events:    events,
		Blobs:     bs,
		Auth:      auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL, revoker),
		Admins:    admins,
		PublicURL: cfg.PublicURL,
		Origins:   cfg.CORSOrigins,
		Ping:      dbh.PingContext,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return broker.Run(gctx) })
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}
	g.Go(func() error {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "blobs", cfg.BlobDriver,
			"redis", cfg.RedisAddr != "", "amqp", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}

// hashPassword reads a password from stdin and prints a bcrypt hash for
// ADMIN_PASS_HASH.
func hashPassword() error {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Println(string(hash))
	return nil
}
