package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/iqbalbaharum/hyper-sdk/internal/adapter"
	"github.com/iqbalbaharum/hyper-sdk/internal/config"
	"github.com/iqbalbaharum/hyper-sdk/internal/engine"
	"github.com/iqbalbaharum/hyper-sdk/internal/handler"
	"github.com/iqbalbaharum/hyper-sdk/internal/observability"
	"github.com/iqbalbaharum/hyper-sdk/internal/rpc"
	"github.com/iqbalbaharum/hyper-sdk/internal/sdk"
	"github.com/iqbalbaharum/hyper-sdk/internal/storage"
	"go.uber.org/zap"
)

type Server struct {
	Router *chi.Mux
}

func CreateServer(h handler.Handlers) *Server {
	server := &Server{
		Router: handler.CreateRoutes(h),
	}

	return server
}

type transport interface {
	SendTransaction(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (common.Hash, error)
	ChainId(ctx context.Context) (uint64, error)
}

func dialTransport(c *config.Config, log *zap.Logger) (transport, func(), error) {
	if c.RpcWsUrl != "" {
		ws, err := rpc.NewWsRpc(c.RpcWsUrl, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to dial %s: %w", c.RpcWsUrl, err)
		}
		return ws, func() { ws.Close() }, nil
	}

	return rpc.NewClient(c.RpcHttpUrl, &http.Client{Timeout: 30 * time.Second}), func() {}, nil
}

func main() {
	c, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := observability.NewLogger(c.Log)
	defer log.Sync()

	if err := run(c, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(c *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node, closeNode, err := dialTransport(c, log)
	if err != nil {
		return err
	}
	defer closeNode()

	chainCtx, cancelChain := context.WithTimeout(ctx, 15*time.Second)
	chainId, err := node.ChainId(chainCtx)
	cancelChain()
	if err != nil {
		// deployment records are keyed by chain, so there is nothing safe to load
		return fmt.Errorf("failed to read chain id: %w", err)
	}

	var opts []sdk.Option
	opts = append(opts, sdk.WithLogger(log.Named("sdk")))

	var submissions *storage.SubmissionStorage
	if c.MySqlDsn != "" {
		database, err := adapter.NewMySQLClient(ctx, c.MySqlDsn, c.MySqlDbName, c.MigrationsDir)
		if err != nil {
			return fmt.Errorf("failed to initialize SQL client: %w", err)
		}
		defer database.MysqlClient.Close()

		submissions = storage.NewSubmissionStorage(database.MysqlClient)
		opts = append(opts, sdk.WithJournal(submissions))
	}

	client := sdk.New(node, c.Sender, opts...)

	var deployments *storage.DeploymentStorage
	if c.RedisAddr != "" {
		redisClient, err := adapter.NewRedisClient(ctx, c.RedisAddr, c.RedisPassword, c.RedisDb)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis client: %w", err)
		}
		defer redisClient.Close()

		deployments = storage.NewDeploymentStorage(redisClient)
	}

	if err := attachDeployment(ctx, c, chainId, client, deployments, log); err != nil {
		return err
	}

	h := handler.Handlers{
		Instructions: handler.NewInstructionHandler(engine.New(log.Named("engine")), client, log),
		Deployment:   handler.NewDeploymentHandler(client, deploymentStore(deployments), chainId, log),
	}
	if submissions != nil {
		h.Submissions = handler.NewSubmissionHandler(submissions)
	}

	server := CreateServer(h)
	srv := &http.Server{
		Addr:              ":" + c.Port,
		Handler:           server.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.Uint64("chainId", chainId))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// attachDeployment uses the configured addresses when present and otherwise
// falls back to the record stored for this chain.
func attachDeployment(ctx context.Context, c *config.Config, chainId uint64, client *sdk.Client, store *storage.DeploymentStorage, log *zap.Logger) error {
	d := c.Deployment
	d.ChainId = chainId

	if d.IsZero() {
		if store == nil {
			log.Warn("no deployment configured, submissions disabled until PUT /deployment")
			return nil
		}

		stored, err := store.GetDeployment(ctx, chainId)
		if errors.Is(err, storage.ErrDeploymentNotFound) {
			log.Warn("no deployment stored", zap.Uint64("chainId", chainId))
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load deployment: %w", err)
		}

		return client.Attach(*stored)
	}

	if err := client.Attach(d); err != nil {
		return err
	}

	if store != nil {
		if err := store.SetDeployment(ctx, &d); err != nil {
			log.Warn("failed to persist deployment", zap.Error(err))
		}
	}

	return nil
}

// deploymentStore keeps a nil *DeploymentStorage from becoming a non-nil
// interface.
func deploymentStore(s *storage.DeploymentStorage) handler.DeploymentStore {
	if s == nil {
		return nil
	}
	return s
}
