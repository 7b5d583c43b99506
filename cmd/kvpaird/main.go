// Command kvpaird runs the KvPair gRPC service (spec §6): a persistent,
// authenticated key-value store backed by a fixed-height sparse Merkle
// tree, exposed to application and prover clients over gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"github.com/sparsekv/smtkv/config"
	"github.com/sparsekv/smtkv/pkg/engine"
	"github.com/sparsekv/smtkv/pkg/rpcserver"
	"github.com/sparsekv/smtkv/pkg/service"
	"github.com/sparsekv/smtkv/pkg/store"
)

func main() {
	if code := run(); code != 0 {
		os.Exit(code)
	}
}

// run wires the process together and returns the process exit code (spec
// §6 "Exit codes"): 0 on a clean shutdown, nonzero on a startup failure.
func run() int {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("load configuration")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("open store")
		return 1
	}
	defer closeStore()

	eng := engine.New(st)

	var defaultContract store.ContractID
	if cfg.DefaultContractID != nil {
		defaultContract = *cfg.DefaultContractID
	}
	svc := service.New(eng, cfg.AllowDefaultContract, defaultContract)

	// A configured test-collection override wins over every other contract
	// resolution source for the lifetime of this process (spec §4.E
	// priority 1); this is how an integration-test deployment pins every
	// unauthenticated call to its own scratch contract without threading
	// auth metadata through the client.
	if cfg.TestCollectionID != nil {
		svc = svc.WithTestOverride(*cfg.TestCollectionID)
	}

	gs := grpc.NewServer(grpc.UnaryInterceptor(rpcserver.LoggingInterceptor()))
	rpcserver.Register(gs, svc)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.ListenPort))
	if err != nil {
		log.Error().Err(err).Uint16("port", cfg.ListenPort).Msg("bind listener")
		return 1
	}

	healthSrv := newHealthServer(cfg)

	errCh := make(chan error, 2)
	go func() {
		log.Info().Uint16("port", cfg.ListenPort).Msg("serving KvPair gRPC")
		if err := gs.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", healthSrv.Addr).Bool("cors", cfg.EnableCORS).Msg("serving health endpoint")
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("health serve: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error")
		return 1
	}

	// Stop accepting new RPCs, let in-flight ones drain, then terminate
	// (spec §5 "Shutdown").
	stopped := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(30 * time.Second):
		log.Warn().Msg("graceful stop timed out, forcing shutdown")
		gs.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("health server shutdown")
	}

	return 0
}

// openStore constructs the configured backend. KVPAIR_STORE=mem selects the
// in-memory store for local development and tests; otherwise it connects to
// cfg.MongoDBURI and pings it, failing when no server answers within 10s.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	if os.Getenv("KVPAIR_STORE") == "mem" {
		log.Warn().Msg("using in-memory store; data does not survive a restart")
		return store.NewMemStore(), func() {}, nil
	}

	dbName := "smtkv"
	if cfg.TestCollectionID != nil {
		dbName = "smtkv_test"
	}

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()
	ms, err := store.NewMongoStore(connectCtx, cfg.MongoDBURI, dbName)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	return ms, func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := ms.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("close mongodb connection")
		}
	}, nil
}

// newHealthServer returns an HTTP server exposing a liveness endpoint for
// load balancers and browser-based dashboards; CORS headers are only
// attached when the operator opts in (spec §9 "Configuration").
func newHealthServer(cfg config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var handler http.Handler = mux
	if cfg.EnableCORS {
		handler = cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}).Handler(mux)
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ListenPort+1),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
