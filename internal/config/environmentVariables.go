package config

import (
	"log/slog"
	"os"
	"time"
)

type contextKey string

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo

	TRACE_ID_KEY contextKey = "traceId"

	RATE_LIMIT_PER_SECOND       = 5
	BURST_RATE_LIMIT_PER_SECOND = 10

	//chunking - word based windows sized for the embedding model
	ChunkWindowWords  = 800
	ChunkOverlapWords = 200

	//embeddings
	EmbeddingInputCharLimit             = 8000
	EmbeddingOutputDimensionality int32 = 1536
	GoogleEmbeddingModel                = "gemini-embedding-001"
	OpenAIEmbeddingModel                = "text-embedding-3-small"

	//llm
	GeminiModelName             = "gemini-2.5-flash-lite-preview-09-2025"
	OpenAIModelName             = "gpt-4o"
	AnalysisTemperature float32 = 0.2
	DraftingTemperature float32 = 0.4
	AnalysisMaxTokens   int32   = 8192
	DraftingMaxTokens   int32   = 4096

	//vector collections
	KnowledgeCollection  = "rfe-knowledge"
	CaseNoticeCollection = "rfe-case-notices"

	//retrieval
	DefaultSearchLimit   = 10
	DraftContextLimit    = 5
	SimilarCaseOverFetch = 3

	//drafting
	DraftLockStaleAfter = 5 * time.Minute

	//worker pool
	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//background jobs
	JobMaxAttempts     = 3
	JobInitialBackoff  = 1 * time.Second
	JobExecutionBudget = 120 * time.Second

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//vectorDB
	QdrantHost     = ""
	QdrantGrpcPort = 6334
	QdrantUseTLS   = false
	QdrantPoolSize = 1

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisPassword = ""

	RedisJobStore = 0

	RedisJobStoreTTL = 24 * time.Hour

	//blob storage
	LocalBlobDir = "blob_data"

	NoAuthBypass = true
	AuthToken    = ""

	//uploads
	MaxUploadSize = 32 << 20
)

func GoogleAPIKey() string {
	return os.Getenv("GOOGLE_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func PostgresDSN() string {
	return os.Getenv("DATABASE_URL")
}
