// Package main runs the grocerease shell: it wires configuration, logging,
// the remote data service, the snapshot backend and the store, then reads
// commands from stdin.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinyakov/grocerease/internal/client/prompt"
	"github.com/atinyakov/grocerease/internal/client/remote"
	"github.com/atinyakov/grocerease/internal/client/remote/fakeapi"
	"github.com/atinyakov/grocerease/internal/client/storage"
	"github.com/atinyakov/grocerease/internal/config"
	"github.com/atinyakov/grocerease/internal/db"
	"github.com/atinyakov/grocerease/internal/logger"
	"github.com/atinyakov/grocerease/internal/repository"
	"github.com/atinyakov/grocerease/internal/store"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const (
	cleanInterval  = time.Hour
	cleanRetention = 30 * 24 * time.Hour
)

func main() {
	options, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("GrocerEase %s (%s)\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "failed to init logger:", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Serve the demo catalog in-process when requested.
	baseURL := options.BaseURL
	shellOpts := []shellOption{withLogger(log)}
	if options.Demo {
		api := fakeapi.New(fakeapi.DemoSeed(), zapLogger.Named("fakeapi"))
		defer api.Close()
		baseURL = api.URL
		shellOpts = append(shellOpts, withDemo(api))
		zapLogger.Info("demo data service started", zap.String("url", baseURL))
	}

	httpClient, err := remote.NewHTTPClient(remote.TLSOptions{
		CAFile:   options.CAFile,
		CertFile: options.CertFile,
		KeyFile:  options.KeyFile,
		Timeout:  options.Timeout,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot build http client", zap.Error(err))
	}
	client := remote.New(baseURL, httpClient, zapLogger)

	persister, err := openStorage(ctx, options, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot open storage", zap.Error(err))
	}

	s := store.New(client, persister, notifierFor(os.Stdout, zapLogger.Named("notice")), zapLogger.Named("store"))
	s.Restore(ctx)
	s.FetchCategories(ctx)
	s.FetchProducts(ctx)
	if st := s.State(); st.IsLoggedIn {
		s.FetchOrders(ctx, st.User.Email)
	}
	if options.RefreshInterval > 0 {
		s.StartAutoRefresh(ctx, options.RefreshInterval)
	}

	sh := newShell(s, prompt.New(os.Stdin, os.Stdout), os.Stdout, shellOpts...)
	if err := sh.run(ctx); err != nil {
		zapLogger.Error("shell stopped", zap.Error(err))
	}
	s.Wait()
}

// openStorage builds the snapshot backend selected by options.
func openStorage(ctx context.Context, options *config.Options, log *zap.Logger) (store.Persister, error) {
	switch options.Storage {
	case config.StorageMemory:
		return storage.NewMemoryStorage(), nil
	case config.StoragePostgres:
		conn, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		db.StartStaleSnapshotCleaner(ctx, conn, cleanInterval, cleanRetention, log)
		repo := repository.NewPostgresSnapshotRepository(conn)
		return storage.NewSQLStorage(repo, options.SnapshotKey), nil
	default:
		var opts []storage.FileOption
		if options.SecretFile != "" {
			secret, err := os.ReadFile(options.SecretFile)
			if err != nil {
				return nil, fmt.Errorf("read secret: %w", err)
			}
			aead, err := storage.NewAEAD(secret)
			if err != nil {
				return nil, err
			}
			opts = append(opts, storage.WithAEAD(aead))
		}
		fs := storage.NewFileStorage(options.DataDir, options.SnapshotKey, opts...)
		log.Info("using snapshot file", zap.String("path", fs.Path()), zap.Bool("encrypted", len(opts) > 0))
		return fs, nil
	}
}

// notifierFor prints notifications to f when it is a terminal and logs
// them otherwise.
func notifierFor(f *os.File, log *zap.Logger) store.Notifier {
	if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return consoleNotifier(f)
	}
	return store.LogNotifier{Log: log}
}
