package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/sirupsen/logrus"

	"github.com/shouni/flame-pfp-kit/pkg/adapters"
	"github.com/shouni/flame-pfp-kit/pkg/catalog"
	"github.com/shouni/flame-pfp-kit/pkg/editor"
	"github.com/shouni/flame-pfp-kit/pkg/generator"
	"github.com/shouni/flame-pfp-kit/pkg/server"
)

// Config は環境変数から読み込むサーバー設定です。
type Config struct {
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`

	Strategy string `env:"FLAMIFY_STRATEGY" envDefault:"two-step"`
	Provider string `env:"FLAMIFY_PROVIDER" envDefault:"openai"`
	Prompt   string `env:"FLAMIFY_PROMPT"`

	Listen    string `env:"FLAMIFY_LISTEN" envDefault:":8888"`
	AssetDir  string `env:"FLAMIFY_ASSET_DIR" envDefault:"./public"`
	ProxyURL  string `env:"FLAMIFY_PROXY_URL" envDefault:"http://localhost:8888/api/generate-ai-pfp"`
	Clipboard bool   `env:"FLAMIFY_CLIPBOARD" envDefault:"true"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`

	FetchTimeout    time.Duration `env:"FLAMIFY_FETCH_TIMEOUT" envDefault:"60s"`
	UpstreamTimeout time.Duration `env:"FLAMIFY_UPSTREAM_TIMEOUT" envDefault:"5m"`
	AssetCacheTTL   time.Duration `env:"FLAMIFY_ASSET_CACHE_TTL" envDefault:"30m"`

	VisionModel      string `env:"OPENAI_VISION_MODEL" envDefault:"gpt-4o"`
	ImageModel       string `env:"OPENAI_IMAGE_MODEL" envDefault:"dall-e-3"`
	EditModel        string `env:"OPENAI_EDIT_MODEL" envDefault:"dall-e-2"`
	GeminiTextModel  string `env:"GEMINI_TEXT_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiImageModel string `env:"GEMINI_IMAGE_MODEL" envDefault:"gemini-2.5-flash-image"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	listenAddress := flag.String("listen", cfg.Listen, "The address to listen on.")
	logLevel := flag.String("loglevel", cfg.LogLevel, "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	setupLogging(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := buildPipeline(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to build transform pipeline: %v", err)
	}
	ed, err := buildEditor(cfg, pipeline)
	if err != nil {
		logrus.Fatalf("Failed to build editor: %v", err)
	}

	srv := &http.Server{
		Addr:              *listenAddress,
		Handler:           server.NewRouter(pipeline, ed),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithFields(logrus.Fields{
		"addr":     *listenAddress,
		"strategy": pipeline.Strategy(),
	}).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("event", "shutdown").Error(err)
	}
}

// setupLogging は logrus を設定し、ライブラリ側の slog も同じ出力・レベルに揃えます。
func setupLogging(level logrus.Level) {
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	slogLevel := slog.LevelInfo
	switch {
	case level >= logrus.DebugLevel:
		slogLevel = slog.LevelDebug
	case level == logrus.WarnLevel:
		slogLevel = slog.LevelWarn
	case level <= logrus.ErrorLevel:
		slogLevel = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logrus.StandardLogger().Out, &slog.HandlerOptions{Level: slogLevel})))
}

func buildPipeline(ctx context.Context, cfg Config) (*generator.Pipeline, error) {
	if cfg.OpenAIAPIKey == "" {
		logrus.Warn("OPENAI_API_KEY environment variable not set. OpenAI requests will fail.")
	}
	openai := generator.NewOpenAIClient(generator.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		VisionModel: cfg.VisionModel,
		ImageModel:  cfg.ImageModel,
		EditModel:   cfg.EditModel,
		HTTPClient:  &http.Client{Timeout: cfg.UpstreamTimeout},
	})

	geminiClient := generator.NewGeminiClient(nil, cfg.GeminiTextModel, cfg.GeminiImageModel)
	if cfg.GeminiAPIKey != "" {
		aiClient, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.GeminiAPIKey})
		if err != nil {
			return nil, err
		}
		geminiClient = generator.NewGeminiClient(aiClient, cfg.GeminiTextModel, cfg.GeminiImageModel)
	}

	var strategy generator.Strategy
	var err error
	switch cfg.Strategy {
	case generator.StrategyOneStep:
		if cfg.Provider == "gemini" {
			strategy, err = generator.NewOneStep(geminiClient)
		} else {
			strategy, err = generator.NewOneStep(openai)
		}
	case generator.StrategyTwoStep:
		if cfg.Provider == "gemini" {
			strategy, err = generator.NewTwoStep(geminiClient, openai)
		} else {
			strategy, err = generator.NewTwoStep(openai, openai)
		}
	default:
		return nil, errors.New("unknown FLAMIFY_STRATEGY: " + cfg.Strategy)
	}
	if err != nil {
		return nil, err
	}

	fetcher, err := generator.NewResultFetcher(httpkit.New(cfg.FetchTimeout), generator.IsSafeURL)
	if err != nil {
		return nil, err
	}
	return generator.NewPipeline(strategy, fetcher)
}

func buildEditor(cfg Config, pipeline *generator.Pipeline) (*editor.Editor, error) {
	assetCache := cache.New(cfg.AssetCacheTTL, 2*cfg.AssetCacheTTL)
	assets, err := catalog.New(os.DirFS(cfg.AssetDir), assetCache, cfg.AssetCacheTTL)
	if err != nil {
		return nil, err
	}

	// プロキシ URL が空ならネットワーク境界を介さずパイプラインを直接呼ぶ
	var transformer editor.Transformer = pipeline
	if cfg.ProxyURL != "" {
		proxy, err := adapters.NewProxyClient(cfg.ProxyURL, &http.Client{Timeout: cfg.UpstreamTimeout})
		if err != nil {
			return nil, err
		}
		transformer = proxy
	}

	opts := []editor.Option{}
	if cfg.Prompt != "" {
		opts = append(opts, editor.WithPrompt(cfg.Prompt))
	} else {
		opts = append(opts, editor.WithPrompt(generator.DefaultPrompt))
	}
	if cfg.Clipboard {
		opts = append(opts, editor.WithClipboard(adapters.NewSystemClipboard()))
	}
	return editor.New(transformer, assets, opts...)
}
