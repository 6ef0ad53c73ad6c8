package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdelaire/ratesbot/adapters/coinbase"
	"github.com/jdelaire/ratesbot/adapters/telegram_receiver"
	"github.com/jdelaire/ratesbot/adapters/telegram_responder"
	"github.com/jdelaire/ratesbot/core"
	"github.com/jdelaire/ratesbot/core/metrics"
	"github.com/jdelaire/ratesbot/core/ops"
	"github.com/jdelaire/ratesbot/core/rates"
	"github.com/jdelaire/ratesbot/internal/config"
	"github.com/jdelaire/ratesbot/internal/credentials"
	"github.com/jdelaire/ratesbot/internal/keychain"
	"github.com/jdelaire/ratesbot/internal/paramstore"
)

const (
	configEnv       = "RATESBOT_CONFIG"
	shutdownTimeout = 5 * time.Second
)

func main() {
	configPath := flag.String("config", envConfigPath(), "path to YAML config file")
	setToken := flag.Bool("set-token", false, "read a bot token from stdin and store it in the keychain")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		slog.Error("failed to create logger", "error", err)
		os.Exit(1)
	}

	if *setToken {
		if err := storeToken(os.Stdin, cfg.Telegram.KeychainAccount); err != nil {
			logger.Error("failed to store token", "error", err)
			os.Exit(1)
		}
		logger.Info("token stored in keychain", "account", cfg.Telegram.KeychainAccount)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ratesbot exited", "error", err)
		os.Exit(1)
	}
}

// envConfigPath loads .env files (all optional) into the environment and
// returns the default config path from it.
func envConfigPath(files ...string) string {
	_ = godotenv.Load(files...)
	return os.Getenv(configEnv)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	token, err := resolveToken(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// The HTTP timeout must outlast the long poll.
	httpClient := &http.Client{Timeout: time.Duration(cfg.Telegram.PollTimeout)*time.Second + 10*time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(token, cfg.Telegram.APIEndpoint, httpClient)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}

	handle := cfg.Telegram.Handle
	if handle == "" {
		handle = bot.Self.UserName
	}
	logger.Info("authorized", "bot", bot.Self.UserName)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	source := coinbase.New(logger).WithBaseURL(cfg.Pricing.BaseURL)
	fetcher := rates.NewFetcher(source, rates.FetcherConfig{
		FailFast: !cfg.Pricing.PartialResults,
		Timeout:  cfg.Pricing.Timeout,
	}, m, logger)

	opsReg := ops.NewRegistry()
	if err := ops.RegisterDefaults(opsReg, handle, fetcher); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}

	responder := telegram_responder.New(bot).WithCacheTime(cfg.Telegram.InlineCacheTime)
	if err := responder.SetCommands(ctx, commandMenu(opsReg)); err != nil {
		logger.Warn("failed to set command menu", "error", err)
	}
	dispatcher := core.NewDispatcher(opsReg, fetcher, responder, m, cfg.Dispatch.MaxConcurrent, logger)

	var receiver core.Receiver = telegram_receiver.New(bot, telegram_receiver.Handlers{
		Message:     dispatcher.HandleMessage,
		InlineQuery: dispatcher.HandleInlineQuery,
	}, logger).WithPollTimeout(cfg.Telegram.PollTimeout)

	if cfg.Metrics.Addr != "" {
		srv := metricsServer(cfg.Metrics.Addr, reg)
		go func() {
			logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}

	err = receiver.Start(ctx)
	dispatcher.Wait()
	return err
}

func resolveToken(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, error) {
	r := &credentials.Resolver{
		Token:           cfg.Telegram.Token,
		Parameter:       cfg.Telegram.TokenParameter,
		KeychainAccount: cfg.Telegram.KeychainAccount,
		Keychain:        keychain.Get,
		Logger:          logger,
	}

	if cfg.Telegram.Token == "" && cfg.Telegram.TokenParameter != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return "", fmt.Errorf("load aws config: %w", err)
		}
		params, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return "", err
		}
		r.Params = params
	}

	return r.Resolve(ctx)
}

func commandMenu(reg *ops.Registry) []telegram_responder.Command {
	var cmds []telegram_responder.Command
	for _, op := range reg.List() {
		cmds = append(cmds, telegram_responder.Command{Name: op.Name(), Description: op.Description()})
	}
	return cmds
}

func metricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newLogger(cfg config.Log, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func storeToken(r io.Reader, account string) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return errors.New("empty token")
	}
	return keychain.Set(account, token)
}
