package main

import (
	"context"
	"net/http"
	"time"

	approvaldomain "github.com/spreadfi/spread/src/approval/domain"
	approval "github.com/spreadfi/spread/src/approval/usecase"
	"github.com/spreadfi/spread/src/balance"
	bridge "github.com/spreadfi/spread/src/bridge/usecase"
	"github.com/spreadfi/spread/src/catalog"
	"github.com/spreadfi/spread/src/config"
	controllerHD "github.com/spreadfi/spread/src/controller/delivery/http"
	controller "github.com/spreadfi/spread/src/controller/usecase"
	historyRepo "github.com/spreadfi/spread/src/history/repository"
	"github.com/spreadfi/spread/src/logger"
	"github.com/spreadfi/spread/src/strategy"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
	swap "github.com/spreadfi/spread/src/swap/usecase"

	"github.com/spreadfi/spread/src/Infrastructure/cctp"
	"github.com/spreadfi/spread/src/Infrastructure/ethereum"
	"github.com/spreadfi/spread/src/Infrastructure/lifi"
	"github.com/spreadfi/spread/src/swap/adapter/strategies"

	_ "github.com/spreadfi/spread/docs" // Swagger docs
	_ "github.com/lib/pq"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.LoadFromEnv()
	logg := logger.New(cfg.Env)

	// --- Database connection ---
	logg.Infof("Connecting to database: %s", cfg.DatabaseURL)

	gormDB, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		logg.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logg.Fatalf("Failed to get generic DB handle: %v", err)
	}
	defer sqlDB.Close()

	// Connection pool tuning
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	// --- Chain clients ---
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	chains := make(map[string]*ethereum.Client, len(cfg.Networks))
	for _, nc := range cfg.Networks {
		client, err := ethereum.NewClient(ctx, ethereum.Config{
			Network:       nc.Name,
			RPCURL:        nc.RPCURL,
			ReadRPCURL:    nc.ReadRPCURL,
			PrivateKey:    nc.PrivateKey,
			ChainID:       nc.ChainID,
			RouterAddress: nc.RouterAddress,
		})
		if err != nil {
			logg.Fatalf("Failed to connect to %s: %v", nc.Name, err)
		}
		defer client.Close()
		chains[nc.Name] = client
		logg.Infof("Connected to %s (chain %s) as %s", nc.Name, nc.ChainID, client.WalletAddress())
	}

	lifiOpts := []lifi.Option{lifi.WithLogger(logg.Zerolog())}
	if cfg.LiFi.APIKey != "" {
		lifiOpts = append(lifiOpts, lifi.WithAPIKey(cfg.LiFi.APIKey))
	}
	lifiClient, err := lifi.NewClient(cfg.LiFi.BaseURL, lifiOpts...)
	if err != nil {
		logg.Fatalf("Failed to build LI.FI client: %v", err)
	}

	// --- Dependencies ---
	cat := catalog.Default()
	registry := strategy.Default()
	swapHistory := historyRepo.NewSwapHistoryRepo(gormDB, logg)

	approvalChains := make(map[string]approvaldomain.Chain, len(chains))
	bridgeChains := make(map[string]bridge.Submitter, len(chains))
	balanceChains := make(map[string]balance.ChainReader, len(chains))
	for name, client := range chains {
		approvalChains[name] = client
		bridgeChains[name] = client
		balanceChains[name] = client
	}

	approvalSvc := approval.NewService(approvalChains, cfg.Swap.Confirmations, cfg.Swap.ConfirmTimeout, logg)
	bridgeSvc := bridge.NewService(lifiClient, cctp.NewClient(), bridgeChains, cat, cfg.LiFi.RouteTimeout, cfg.Swap.DeliveryWait, logg)
	balanceSvc := balance.NewService(balanceChains, cat, logg)

	orchestrator := swap.NewService(registry, []swapdomain.Strategy{
		strategies.NewAMM(chains, cat),
		strategies.NewAggregator(lifiClient, chains, cat),
	}, bridgeSvc, cfg, logg)

	ctrl := controller.NewController(
		orchestrator,
		approvalSvc,
		balanceSvc,
		swapHistory,
		cat,
		controller.NewMemoryStore(),
		controller.RefreshPolicy{MaxAttempts: cfg.Swap.RefreshAttempts, BaseDelay: cfg.Swap.RefreshBaseDelay},
		logg,
	)
	handler := controllerHD.NewHandler(ctrl, logg)

	// --- Router ---
	r := gin.New()

	// Core middleware
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logg.Infof("%s %s status:%d duration:%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	})

	// --- Healthcheck ---
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Swagger ---
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// --- API routes ---
	handler.RegisterRoutes(r)

	// --- Start server ---
	logg.Infof("Starting service on %s (env=%s)", cfg.ListenAddr, cfg.Env)
	logg.Infof("Swagger UI available at http://localhost%s/swagger/index.html", cfg.ListenAddr)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Fatalf("Server terminated unexpectedly: %v", err)
	}
	ctrl.WaitRefreshes()
}
