package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ceritaku/internal/config"
	"ceritaku/internal/generator"
	"ceritaku/internal/logging"
	"ceritaku/internal/media"
	"ceritaku/internal/progress"
	"ceritaku/internal/service"
	"ceritaku/internal/store"
)

type rootFlags struct {
	configFile string
	host       string
	port       int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "ceritaku",
		Short:         "Backend for the CeritaKu children's reading app",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default ./ceritaku.yaml)")
	root.PersistentFlags().StringVar(&flags.host, "host", "", "listen host, e.g. 0.0.0.0")
	root.PersistentFlags().IntVar(&flags.port, "port", 0, "listen port, e.g. 8080")

	root.AddCommand(newServeCmd(flags), newProgressCmd(flags))
	return root
}

// loadConfig reads configuration and applies the listen flags the user actually set.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = strings.TrimSpace(flags.host)
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = flags.port
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		OutputPath: cfg.Log.Output,
	})
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	return store.NewByEngine(ctx, store.Options{
		Engine:        cfg.Store.Engine,
		Path:          cfg.Store.Path,
		RedisAddr:     cfg.Store.RedisAddr,
		RedisPassword: cfg.Store.RedisPassword,
		RedisDB:       cfg.Store.RedisDB,
		RedisPrefix:   cfg.Store.RedisPrefix,
		PostgresURL:   cfg.Store.PostgresURL,
	})
}

// app is everything a command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	kv     store.Store
	svc    *service.Service
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("store close failed", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func buildApp(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*app, error) {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	kv, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	progressStore, err := progress.Open(ctx, kv, logger)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("load progress: %w", err)
	}

	uploader, err := newUploader(cfg)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("init media: %w", err)
	}
	gen, err := generator.New(ctx, generator.Config{
		Provider:           cfg.Generator.Provider,
		APIKey:             cfg.Generator.APIKey,
		BaseURL:            cfg.Generator.BaseURL,
		Model:              cfg.Generator.Model,
		ImageModel:         cfg.Generator.ImageModel,
		Timeout:            cfg.Generator.Timeout,
		MaxRetries:         cfg.Generator.MaxRetries,
		FallbackToTemplate: cfg.Generator.FallbackToTemplate,
		Uploader:           uploader,
	}, logger)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("init generator: %w", err)
	}
	logger.Info("generator ready", zap.String("provider", cfg.Generator.Provider), zap.Bool("fallback", cfg.Generator.FallbackToTemplate))

	return &app{
		cfg:    cfg,
		logger: logger,
		kv:     kv,
		svc:    service.New(progressStore, gen, logger),
	}, nil
}

func newUploader(cfg *config.Config) (media.Uploader, error) {
	if cfg.Media.Provider != "cos" {
		return nil, nil
	}
	u, err := media.NewCOSUploader(media.COSConfig{
		SecretID:     cfg.Media.COSSecretID,
		SecretKey:    cfg.Media.COSSecretKey,
		Bucket:       cfg.Media.COSBucket,
		Region:       cfg.Media.COSRegion,
		PublicDomain: cfg.Media.COSPublicDomain,
		Prefix:       cfg.Media.Prefix,
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func joinListenAddr(host string, port int) string {
	if port <= 0 {
		port = 8080
	}
	if host == "" {
		return fmt.Sprintf(":%d", port)
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
