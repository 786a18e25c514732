package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lantern-kg/lantern/internal/queue"
	mid "github.com/lantern-kg/lantern/internal/server/middleware"
	"github.com/lantern-kg/lantern/internal/storage"
	"github.com/lantern-kg/lantern/internal/util"
	"github.com/lantern-kg/lantern/pkg/activity"
	"github.com/lantern-kg/lantern/pkg/costs"
	"github.com/lantern-kg/lantern/pkg/flow/socket"
	"github.com/lantern-kg/lantern/pkg/flowclass"
	"github.com/lantern-kg/lantern/pkg/graph"
	"github.com/lantern-kg/lantern/pkg/library"
	"github.com/lantern-kg/lantern/pkg/logger"
	"github.com/lantern-kg/lantern/pkg/search"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func Init() {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flowClient, err := util.Retry(5, func() (*socket.Client, error) {
		return socket.NewClient(ctx, socket.NewClientParams{
			URL:                   util.GetEnv("FLOW_URL"),
			Timeout:               util.GetEnvDuration("FLOW_TIMEOUT", time.Minute),
			MaxConcurrentRequests: int64(util.GetEnvInt("FLOW_MAX_REQUESTS", 8)),
		})
	})
	if err != nil {
		logger.Fatal("Failed to connect to flow service", "err", err)
	}
	defer flowClient.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	if err := queue.SetupQueues(ch, []string{queue.LibraryQueue}); err != nil {
		logger.Fatal("Failed to declare queues", "err", err)
	}

	registry := activity.NewRegistry()
	tracker := queue.NewRelay(registry, ch)

	explorer, err := graph.NewExplorer(graph.NewExplorerParams{
		Client:         flowClient,
		Activity:       tracker,
		ParallelLabels: util.GetEnvInt("PARALLEL_LABELS", 8),
	})
	if err != nil {
		logger.Fatal("Failed to create graph explorer", "err", err)
	}

	searcher, err := search.NewSearcher(search.NewSearcherParams{
		Client:   flowClient,
		Explorer: explorer,
		Activity: tracker,
	})
	if err != nil {
		logger.Fatal("Failed to create searcher", "err", err)
	}

	flowClasses, err := flowclass.NewManager(flowclass.NewManagerParams{Client: flowClient})
	if err != nil {
		logger.Fatal("Failed to create flow class manager", "err", err)
	}

	costManager, err := costs.NewManager(costs.NewManagerParams{Client: flowClient})
	if err != nil {
		logger.Fatal("Failed to create cost manager", "err", err)
	}

	s3, err := storage.NewClientFromEnv(ctx)
	if err != nil {
		logger.Fatal("Failed to create storage client", "err", err)
	}

	lib, err := library.NewLibrary(library.NewLibraryParams{
		Client: flowClient,
		Blobs:  s3,
	})
	if err != nil {
		logger.Fatal("Failed to create library", "err", err)
	}

	app := &mid.App{
		Flow:        flowClient,
		Explorer:    explorer,
		Searcher:    searcher,
		FlowClasses: flowClasses,
		Costs:       costManager,
		Library:     lib,
		Activity:    registry,
		Queue:       ch,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Error("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "err", v.Error)
				return nil
			}
			logger.Info("Request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("100M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
