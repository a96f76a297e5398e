package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/escrow-ledger/internal/config"
	"github.com/ignatzorin/escrow-ledger/internal/db"
	httpHandlers "github.com/ignatzorin/escrow-ledger/internal/http/handlers"
	httpRouter "github.com/ignatzorin/escrow-ledger/internal/http/router"
	"github.com/ignatzorin/escrow-ledger/internal/logger"
	"github.com/ignatzorin/escrow-ledger/internal/repository"
	"github.com/ignatzorin/escrow-ledger/internal/service"
	"github.com/ignatzorin/escrow-ledger/internal/storage"
	"github.com/ignatzorin/escrow-ledger/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Токены выпускает внешний сервис авторизации, нам нужна только проверка.
	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	documentStorage, err := storage.NewDocumentStorage(cfg.DocumentsPath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить хранилище документов: %v", err)
	}

	// Репозитории.
	walletRepo := repository.NewWalletRepository(dbConn)
	projectRepo := repository.NewProjectRepository(dbConn)
	offerRepo := repository.NewOfferRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	invoiceRepo := repository.NewInvoiceRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	documentService := service.NewDocumentService(documentStorage)
	walletService := service.NewWalletService(walletRepo, hub)
	projectService := service.NewProjectService(projectRepo, hub)
	offerService := service.NewOfferService(offerRepo, hub)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, hub, cfg.MinWithdrawal, cfg.VATRate, cfg.InvoiceDeadline)
	invoiceService := service.NewInvoiceService(invoiceRepo, documentService, hub, cfg.VATRate, cfg.IRPFRate)

	// HTTP хэндлеры.
	walletHandler := httpHandlers.NewWalletHandler(walletService)
	projectHandler := httpHandlers.NewProjectHandler(projectService)
	offerHandler := httpHandlers.NewOfferHandler(offerService)
	withdrawalHandler := httpHandlers.NewWithdrawalHandler(withdrawalService)
	invoiceHandler := httpHandlers.NewInvoiceHandler(invoiceService)
	webhookHandler := httpHandlers.NewWebhookHandler(walletService, withdrawalService, invoiceService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, walletHandler, projectHandler, offerHandler, withdrawalHandler, invoiceHandler, webhookHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
