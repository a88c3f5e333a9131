package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sketch2web/config"
	"sketch2web/generator"
	"sketch2web/preview"
	"sketch2web/server"
)

var verbose bool

func main() {
	configPath := flag.String("config", "config/config.json", "path to config.json")
	serve := flag.Bool("serve", false, "start web server")
	addr := flag.String("addr", "", "http listen address when --serve (overrides config.server_addr)")
	imagePath := flag.String("image", "", "path to sketch image (png/jpeg)")
	canvas := flag.Bool("canvas", false, "treat --image as a canvas drawing rather than an upload")
	prompt := flag.String("prompt", "", "additional instructions for the model")
	provider := flag.String("provider", "", "llm provider (openai, huggingface, mock); default from config")
	out := flag.String("out", "", "write the preview document here instead of a temp file")
	flag.BoolVar(&verbose, "v", false, "enable debug logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := buildLogger(cfg.LogLevel, verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	registry, err := generator.NewRegistry(cfg.DefaultProvider, cfg.LLMSettings())
	if err != nil {
		logger.Fatal("llm registry", zap.Error(err))
	}
	agent, err := generator.NewAgent(registry, cfg.ImageOptions(), logger.Named("generator"))
	if err != nil {
		logger.Fatal("generator agent", zap.Error(err))
	}

	// Web server mode
	if *serve {
		listen := cfg.ServerAddr
		if *addr != "" {
			listen = *addr
		}
		if err := runServer(cfg, agent, logger, listen); err != nil {
			logger.Fatal("server", zap.Error(err))
		}
		return
	}

	if *imagePath == "" && *prompt == "" {
		fmt.Fprintln(os.Stderr, "--image or --prompt is required (or use --serve)")
		os.Exit(1)
	}

	req := generator.GenerationRequest{
		Instructions: *prompt,
		Provider:     *provider,
		Source:       generator.SourceUpload,
	}
	if *canvas {
		req.Source = generator.SourceCanvas
	}
	if *imagePath != "" {
		req.Image, err = os.ReadFile(*imagePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.GenerateTimeout))
	defer cancel()

	sess := generator.NewSession(uuid.NewString())
	logger.Info("generating", zap.String("session_id", sess.ID), zap.String("image", *imagePath))
	if _, err := agent.Generate(ctx, sess, req); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if sess.State() == generator.StateExtractionMiss {
		logger.Warn("no html or css found in the model reply")
	}

	doc := preview.RenderSession(sess, preview.DefaultDefaults)
	path := *out
	if path == "" {
		path, err = preview.WriteTempFile(cfg.PreviewDir, doc)
	} else {
		err = preview.WriteFile(path, doc)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(path)
}

func runServer(cfg config.Config, agent *generator.Agent, logger *zap.Logger, listen string) error {
	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := server.New(server.Options{
		Agent:           agent,
		Store:           store,
		Logger:          logger.Named("http"),
		GenerateTimeout: time.Duration(cfg.GenerateTimeout),
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:        listen,
		Handler:     srv.Routes(),
		ReadTimeout: 30 * time.Second,
		// must cover the model call
		WriteTimeout: time.Duration(cfg.GenerateTimeout) + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting web server", zap.String("addr", listen), zap.String("session_backend", cfg.Session.Backend))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.Stringer("signal", sig))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

func buildStore(cfg config.Config) (server.SessionStore, func(), error) {
	ttl := time.Duration(cfg.Session.TTL)
	if cfg.Session.Backend != "redis" {
		return server.NewMemoryStore(ttl), func() {}, nil
	}
	client, err := server.ConnectRedis(context.Background(), cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return server.NewRedisStore(client, ttl), func() { client.Close() }, nil
}

func buildLogger(level string, debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
		zcfg.Level = lvl
	}
	return zcfg.Build()
}
