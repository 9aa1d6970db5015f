package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"legalrag/internal/ai"
	"legalrag/internal/app"
	"legalrag/internal/cache"
	"legalrag/internal/config"
	"legalrag/internal/model"
	mysqlClient "legalrag/internal/platform/mysql"
	rabbitmqClient "legalrag/internal/platform/rabbitmq"
	redisClient "legalrag/internal/platform/redis"
	"legalrag/internal/rag"
	"legalrag/internal/repository"
	"legalrag/internal/worker"
)

type App struct {
	Config        *config.Config
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	Corpus        *rag.CorpusStore
	ChatService   *app.ChatService
	IngestService *app.IngestService
	EmbedWorker   *worker.EmbedWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.StatuteRecord{},
		&model.EmbeddingRecord{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.Citation{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	corpus, err := rag.NewCorpusStore(cfg.Embedding.Dimension)
	if err != nil {
		return nil, err
	}

	encoder := ai.NewEncoder(ai.EncoderConfig{
		BaseURL:   cfg.Embedding.BaseURL,
		APIKey:    cfg.Embedding.APIKey,
		Model:     cfg.Embedding.Model,
		Dimension: cfg.Embedding.Dimension,
	})

	statuteRepo := repository.NewStatuteRepository(mysqlDB)
	embeddingRepo := repository.NewEmbeddingRepository(mysqlDB)
	sessionRepo := repository.NewSessionRepository(mysqlDB)
	messageRepo := repository.NewMessageRepository(mysqlDB)

	publisher := rabbitmqClient.NewEmbedJobPublisher(mqConn, cfg.RabbitMQ.EmbedQueue)
	ingestService := app.NewIngestService(statuteRepo, embeddingRepo, corpus, encoder, publisher)
	if err := ingestService.WarmLoad(); err != nil {
		return nil, fmt.Errorf("warm load corpus failed: %w", err)
	}

	embedWorker := worker.NewEmbedWorker(mqConn, ingestService, cfg.RabbitMQ.EmbedQueue)
	if err := embedWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start embed worker failed: %w", err)
	}

	// Backend priority order: hosted model first, local rule-based
	// responder second; the generator's terminal apology closes the chain.
	generator := rag.NewGenerator(
		[]rag.Backend{
			ai.NewChatBackend(ai.ChatConfig{
				BaseURL: cfg.LLM.BaseURL,
				APIKey:  cfg.LLM.APIKey,
				Model:   cfg.LLM.Model,
			}),
			rag.NewRuleBasedBackend(cfg.Retrieval.ExcerptChars),
		},
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
	)

	historyCache := cache.NewHistoryCache(
		redisCli,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	chatService := app.NewChatService(
		sessionRepo,
		messageRepo,
		rag.NewVectorRetriever(encoder, corpus),
		rag.NewComposer(cfg.Retrieval.ExcerptChars),
		generator,
		historyCache,
		app.RetrievalOptions{
			TopK:         cfg.Retrieval.TopK,
			MinScore:     cfg.Retrieval.MinScore,
			SnippetChars: cfg.Retrieval.SnippetChars,
		},
	)

	return &App{
		Config:        cfg,
		MySQL:         mysqlDB,
		Redis:         redisCli,
		MQConn:        mqConn,
		Corpus:        corpus,
		ChatService:   chatService,
		IngestService: ingestService,
		EmbedWorker:   embedWorker,
		StartedAt:     time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.EmbedWorker != nil {
		a.EmbedWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
