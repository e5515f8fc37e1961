package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"taskboard/internal/config"
	"taskboard/internal/handlers"
	"taskboard/internal/logger"
	"taskboard/internal/metrics"
	"taskboard/internal/service"
	"taskboard/internal/view"
	"taskboard/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	backend   *Backend
	service   *service.TaskService
	worker    *worker.ExpiryWorker
	registry  *prometheus.Registry
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(a.registry); err != nil {
		return nil, fmt.Errorf("регистрация метрик: %w", err)
	}

	backend, err := OpenBackend(ctx, a.config)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	a.backend = backend
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие хранилищ...")
		backend.Close()
	})

	svc, err := backend.NewService(a.config)
	if err != nil {
		a.Shutdown()
		return nil, err
	}
	if err := svc.Start(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}
	a.service = svc
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Остановка сервиса задач...")
		svc.Stop()
	})

	renderer, err := view.NewRenderer()
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("загрузка шаблонов: %w", err)
	}

	opts := []handlers.HandlerOption{handlers.WithMaxUpload(a.config.Server.MaxUploadBytes)}
	if backend.Files != nil {
		opts = append(opts, handlers.WithBlobs(backend.Files))
	}
	h := handlers.NewTaskHandler(svc, renderer, opts...)

	a.router = handlers.NewRouter(h, handlers.RouterConfig{
		RateLimitRPM:   a.config.Server.RateLimitRPM,
		RateLimitBurst: a.config.Server.RateLimitBurst,
		Gatherer:       a.registry,
	})

	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	// открытые SSE-соединения не дают Shutdown завершиться
	a.server.RegisterOnShutdown(svc.CloseSubscribers)

	a.worker = worker.NewExpiryWorker(svc, a.config.Worker.ExpiryInterval)

	return a, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		a.worker.Start(workerCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("HTTP: Получен сигнал остановки")
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP: Сервер завершился с ошибкой", err)
			runErr = fmt.Errorf("http сервер: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP: Ошибка остановки сервера", err)
	}

	stopWorker()
	<-workerDone

	a.Shutdown()
	return runErr
}

// Shutdown runs the registered shutdown functions in reverse order.
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}

func (a *App) Router() *chi.Mux {
	return a.router
}
