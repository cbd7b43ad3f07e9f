package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/SaiNageswarS/portfolio-chat/appconfig"
	"github.com/SaiNageswarS/portfolio-chat/handlers"
	"github.com/SaiNageswarS/portfolio-chat/llm"
	"github.com/SaiNageswarS/portfolio-chat/memory"
	"github.com/SaiNageswarS/portfolio-chat/prompts"
	"github.com/SaiNageswarS/portfolio-chat/services"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	// load config file
	ccfgg, err := appconfig.Load("config.ini")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	systemPrompt, err := prompts.SystemPrompt(ccfgg.SystemPrompt, prompts.PersonaData{
		OwnerName:  ccfgg.OwnerName,
		OwnerEmail: ccfgg.OwnerEmail,
	})
	if err != nil {
		logger.Fatal("Failed to render system prompt", zap.Error(err))
	}

	llmClient, err := provideLLMClient(ccfgg)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	ctx := getCancellableContext()

	conversations := memory.NewConversationManager(systemPrompt, ccfgg.MaxHistory,
		memory.WithIdleTTL(ccfgg.SessionIdleTTL()))
	conversations.StartJanitor(ctx, time.Minute)

	gateway := llm.NewGateway(llmClient,
		llm.WithTemperature(ccfgg.LLMTemperature),
		llm.WithMaxTokens(ccfgg.LLMMaxTokens))

	chat := services.ProvideChatService(conversations, gateway, ccfgg.DefaultUserID, ccfgg.MaxMessageRunes)

	e := handlers.NewServer(handlers.NewChatHandler(chat), handlers.ServerOptions{
		AllowedOrigins:     ccfgg.Origins(),
		RateLimitPerSecond: ccfgg.RateLimitPerSecond,
	})

	boot, err := server.New().
		GRPCPort(fmt.Sprintf(":%d", ccfgg.GRPCPort)).
		HTTPPort(fmt.Sprintf(":%d", ccfgg.HTTPPort)).
		Provide(ccfgg).
		// chat routes are served by echo; /health comes from the boot server
		Handle("/chat", e.ServeHTTP).
		Handle("/chat/", e.ServeHTTP).
		Build()

	if err != nil {
		logger.Fatal("Dependency Injection Failed", zap.Error(err))
	}

	logger.Info("Starting chat server",
		zap.Int("httpPort", ccfgg.HTTPPort),
		zap.String("provider", ccfgg.LLMProvider),
		zap.String("model", llmClient.GetModel()),
		zap.Int("maxHistory", conversations.GetMaxMessages()))

	// catch SIGINT ‑> cancel
	_ = boot.Serve(ctx)
}

func provideLLMClient(ccfgg *appconfig.AppConfig) (llm.LLMClient, error) {
	switch ccfgg.LLMProvider {
	case appconfig.ProviderOllama:
		return llm.NewOllamaClient(ccfgg.LLMModel)
	default:
		return llm.NewInferenceClient(ccfgg.APIKey, ccfgg.LLMEndpoint, ccfgg.LLMModel, ccfgg.LLMTimeout())
	}
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
