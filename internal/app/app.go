package app

import (
	"context"
	"net/http"

	"carelink-go/internal/config"
	"carelink-go/internal/db"
	circledomain "carelink-go/internal/domain/circle"
	familydomain "carelink-go/internal/domain/family"
	profiledomain "carelink-go/internal/domain/profile"
	vaultdomain "carelink-go/internal/domain/vault"
	circlerepo "carelink-go/internal/repository/postgres/circle"
	familyrepo "carelink-go/internal/repository/postgres/family"
	profilerepo "carelink-go/internal/repository/postgres/profile"
	"carelink-go/internal/storage/s3"
	"carelink-go/internal/transport/httpserver"
	"carelink-go/internal/transport/httpserver/handler"
	"carelink-go/pkg/logger"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(ctx context.Context, log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB)
	if err != nil {
		return nil, err
	}

	log.Info("app: applying migrations")
	if err := db.Migrate(ctx, dbConn); err != nil {
		return nil, err
	}

	log.Info("app: initializing vault signer")
	signer, err := s3.NewSigner(ctx, s3.Config{
		Region:       cfg.Vault.Region,
		BaseEndpoint: cfg.Vault.BaseEndpoint,
		AccessKey:    cfg.Vault.AccessKey,
		SecretKey:    cfg.Vault.SecretKey,
		Bucket:       cfg.Vault.Bucket,
		UsePathStyle: cfg.Vault.UsePathStyle,
	})
	if err != nil {
		return nil, err
	}

	profiles := profiledomain.NewService(profilerepo.NewPostgres(dbConn))
	circle := circledomain.NewService(circlerepo.NewPostgres(dbConn), profiles)
	families := familydomain.NewService(familyrepo.NewPostgres(dbConn), profiles)
	vault := vaultdomain.NewService(signer, circle, families, profiles)

	handlers := handler.New(circle, families, vault, log)

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handlers, profiles)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
