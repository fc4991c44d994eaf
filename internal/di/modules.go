package di

import (
	"askpdf-ai/config"
	"askpdf-ai/internal/apis/handlers"
	"askpdf-ai/internal/constants"
	"askpdf-ai/internal/repositories"
	"askpdf-ai/internal/services"
	"askpdf-ai/internal/utils"
	"askpdf-ai/pkg/chunker"
	"askpdf-ai/pkg/embedding"
	"askpdf-ai/pkg/llm"
	"askpdf-ai/pkg/mongodb"
	"askpdf-ai/pkg/redis"
	"askpdf-ai/pkg/vectorstore"
	"log"
	"time"

	"go.uber.org/dig"
)

var DiContainer *dig.Container

func Initialize() {
	DiContainer = dig.New()

	// Initialize MongoDB
	dbConfig := mongodb.MongoDbConfigModel{
		ConnectionUrl: config.Env.MongoURI,
		DatabaseName:  config.Env.MongoDatabaseName,
	}
	mongodbClient := mongodb.InitializeDatabaseConnection(dbConfig)

	// Initialize Redis
	redisClient, err := redis.RedisClient(config.Env.RedisHost, config.Env.RedisPort, config.Env.RedisUsername, config.Env.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}

	redisRepo := redis.NewRedisRepositories(redisClient)
	jwtService := utils.NewJWTService(
		config.Env.JWTSecret,
		time.Millisecond*time.Duration(config.Env.JWTExpirationMilliseconds),
		time.Millisecond*time.Duration(config.Env.JWTRefreshExpirationMilliseconds),
	)

	if err := DiContainer.Provide(func() *mongodb.MongoDBClient { return mongodbClient }); err != nil {
		log.Fatalf("Failed to provide MongoDB client: %v", err)
	}

	if err := DiContainer.Provide(func() redis.IRedisRepositories { return redisRepo }); err != nil {
		log.Fatalf("Failed to provide Redis repositories: %v", err)
	}

	if err := DiContainer.Provide(func() utils.JWTService { return jwtService }); err != nil {
		log.Fatalf("Failed to provide JWT service: %v", err)
	}

	// Repositories
	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.UserRepository {
		return repositories.NewUserRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide user repository: %v", err)
	}

	if err := DiContainer.Provide(func(redisRepo redis.IRedisRepositories) repositories.TokenRepository {
		return repositories.NewTokenRepository(redisRepo)
	}); err != nil {
		log.Fatalf("Failed to provide token repository: %v", err)
	}

	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.FileRepository {
		return repositories.NewFileRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide file repository: %v", err)
	}

	if err := DiContainer.Provide(func(db *mongodb.MongoDBClient) repositories.MessageRepository {
		return repositories.NewMessageRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide message repository: %v", err)
	}

	// Indexing pipeline pieces
	if err := DiContainer.Provide(func() embedding.Embedder {
		return embedding.NewOpenAIEmbedder(config.Env.OpenAIAPIKey, config.Env.OpenAIEmbeddingModel)
	}); err != nil {
		log.Fatalf("Failed to provide embedder: %v", err)
	}

	if err := DiContainer.Provide(func() *chunker.SentenceChunker {
		return chunker.NewSentenceChunker(5, 1)
	}); err != nil {
		log.Fatalf("Failed to provide chunker: %v", err)
	}

	if err := DiContainer.Provide(func() vectorstore.Store {
		if config.Env.VectorStoreType == "pinecone" {
			return vectorstore.NewPineconeStore(vectorstore.PineconeConfig{
				IndexHost: config.Env.PineconeIndexHost,
				APIKey:    config.Env.PineconeAPIKey,
			})
		}
		log.Println("Using in-memory vector store; indexed data will not survive a restart")
		return vectorstore.NewMemoryStore()
	}); err != nil {
		log.Fatalf("Failed to provide vector store: %v", err)
	}

	// LLM Manager
	if err := DiContainer.Provide(func() *llm.Manager {
		manager := llm.NewManager()

		switch config.Env.DefaultLLMClient {
		case constants.OpenAI:
			err := manager.RegisterClient(constants.OpenAI, llm.Config{
				Provider:            constants.OpenAI,
				Model:               config.Env.OpenAIModel,
				APIKey:              config.Env.OpenAIAPIKey,
				MaxCompletionTokens: config.Env.OpenAIMaxCompletionTokens,
				Temperature:         config.Env.OpenAITemperature,
				SystemPrompt:        constants.AnswerSystemPrompt,
			})
			if err != nil {
				log.Printf("Warning: Failed to register OpenAI client: %v", err)
			}
		case constants.Gemini:
			err := manager.RegisterClient(constants.Gemini, llm.Config{
				Provider:            constants.Gemini,
				Model:               config.Env.GeminiModel,
				APIKey:              config.Env.GeminiAPIKey,
				MaxCompletionTokens: config.Env.GeminiMaxCompletionTokens,
				Temperature:         config.Env.GeminiTemperature,
				SystemPrompt:        constants.AnswerSystemPrompt,
			})
			if err != nil {
				log.Printf("Warning: Failed to register Gemini client: %v", err)
			}
		}
		return manager
	}); err != nil {
		log.Fatalf("Failed to provide LLM manager: %v", err)
	}

	// Services
	if err := DiContainer.Provide(func(userRepo repositories.UserRepository, tokenRepo repositories.TokenRepository, jwt utils.JWTService) services.AuthService {
		return services.NewAuthService(userRepo, jwt, tokenRepo)
	}); err != nil {
		log.Fatalf("Failed to provide auth service: %v", err)
	}

	if err := DiContainer.Provide(func(
		fileRepo repositories.FileRepository,
		messageRepo repositories.MessageRepository,
		textChunker *chunker.SentenceChunker,
		embedder embedding.Embedder,
		store vectorstore.Store,
	) services.FileService {
		return services.NewFileService(fileRepo, messageRepo, textChunker, embedder, store)
	}); err != nil {
		log.Fatalf("Failed to provide file service: %v", err)
	}

	if err := DiContainer.Provide(func(
		fileRepo repositories.FileRepository,
		messageRepo repositories.MessageRepository,
		llmManager *llm.Manager,
		embedder embedding.Embedder,
		store vectorstore.Store,
	) services.ChatService {
		llmClient, err := llmManager.GetClient(config.Env.DefaultLLMClient)
		if err != nil {
			log.Fatalf("Failed to get default LLM client: %v", err)
		}
		return services.NewChatService(fileRepo, messageRepo, llmClient, embedder, store)
	}); err != nil {
		log.Fatalf("Failed to provide chat service: %v", err)
	}

	// Handlers
	if err := DiContainer.Provide(func(authService services.AuthService) *handlers.AuthHandler {
		return handlers.NewAuthHandler(authService)
	}); err != nil {
		log.Fatalf("Failed to provide auth handler: %v", err)
	}

	if err := DiContainer.Provide(func(fileService services.FileService) *handlers.FileHandler {
		return handlers.NewFileHandler(fileService)
	}); err != nil {
		log.Fatalf("Failed to provide file handler: %v", err)
	}

	if err := DiContainer.Provide(func(chatService services.ChatService) *handlers.MessageHandler {
		return handlers.NewMessageHandler(chatService)
	}); err != nil {
		log.Fatalf("Failed to provide message handler: %v", err)
	}
}

// GetAuthHandler retrieves the AuthHandler from the DI container
func GetAuthHandler() (*handlers.AuthHandler, error) {
	var handler *handlers.AuthHandler
	err := DiContainer.Invoke(func(h *handlers.AuthHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

// GetFileHandler retrieves the FileHandler from the DI container
func GetFileHandler() (*handlers.FileHandler, error) {
	var handler *handlers.FileHandler
	err := DiContainer.Invoke(func(h *handlers.FileHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

// GetMessageHandler retrieves the MessageHandler from the DI container
func GetMessageHandler() (*handlers.MessageHandler, error) {
	var handler *handlers.MessageHandler
	err := DiContainer.Invoke(func(h *handlers.MessageHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}
