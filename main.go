package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"content_generator/artifact"
	"content_generator/config"
	"content_generator/generator"
	"content_generator/server"
	"content_generator/shell"
)

var verbose bool

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file (optional)")
	topic := flag.String("topic", "", "generate once for this topic and exit")
	contentType := flag.String("type", string(generator.Blog), "content type: 'blog' or 'social media'")
	systemPrompt := flag.String("system", "", "custom system prompt")
	humanPrompt := flag.String("human", "", "custom human prompt, must contain {topic}")
	serve := flag.Bool("serve", false, "start the web form UI")
	addr := flag.String("addr", "", "http listen address when --serve (overrides server.addr)")
	flag.BoolVar(&verbose, "v", false, "enable debug logs")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := newLogger(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 只有交互式 shell 才允许在终端里询问 API key。
	interactive := !*serve && *topic == ""
	llm, err := buildLLM(ctx, cfg.LLM, interactive, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	parse, err := generator.ParserFor(generator.ParseMode(cfg.Parser.Mode))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	agent, err := generator.NewAgent(llm,
		generator.WithModel(cfg.LLM.Model),
		generator.WithTemperature(cfg.LLM.Temperature),
		generator.WithParser(parse),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	writer := artifact.NewWriter(cfg.Output.Dir, cfg.Output.Unique, log)

	// Web server mode
	if *serve {
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		srv, err := server.New(agent, writer, server.Options{
			Timeout:     cfg.Server.Timeout,
			CORSOrigins: cfg.Server.CORSOrigins,
			Metrics:     cfg.Server.Metrics,
			Logger:      log,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		listen := cfg.Server.Addr
		if *addr != "" {
			listen = *addr
		}
		if err := runServer(ctx, listen, srv.Routes(), log); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// One-shot mode
	if *topic != "" {
		ct, err := generator.ParseContentType(*contentType)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		req := generator.Request{
			Topic:        *topic,
			ContentType:  ct,
			SystemPrompt: *systemPrompt,
			HumanPrompt:  *humanPrompt,
		}
		sh := shell.New(agent, writer, os.Stdin, os.Stdout, shell.WithLogger(log))
		if err := sh.RunOnce(ctx, req); err != nil {
			os.Exit(1)
		}
		return
	}

	sh := shell.New(agent, writer, os.Stdin, os.Stdout, shell.WithLogger(log))
	if err := sh.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildLLM(ctx context.Context, cfg config.LLMConfig, interactive bool, log logrus.FieldLogger) (generator.LLMClient, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set llm.provider/model in config")
	}
	if cfg.Provider == "mock" {
		log.Warn("using mock llm provider; no model will be called")
		return generator.MockLLM{}, nil
	}

	cred, err := config.NewResolver(cfg, interactive).Resolve()
	if err != nil {
		return nil, err
	}
	log.WithField("source", cred.Source).Debug("api key resolved")
	settings := &generator.LLMSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cred.Value,
		BaseURL:  cfg.BaseURL,
	}

	switch cfg.Provider {
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "eino":
		return generator.NewEinoLLMFromConfig(ctx, settings)
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	log.SetLevel(lvl)
	return log
}

func runServer(ctx context.Context, listen string, h http.Handler, log logrus.FieldLogger) error {
	if listen == "" {
		listen = ":7860"
	}
	srv := &http.Server{Addr: listen, Handler: h}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	log.WithField("addr", listen).Info("starting web server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
