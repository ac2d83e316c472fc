// @title           RFE Ready API
// @version         1.0
// @description     Asynchronous RFE notice analysis, knowledge retrieval and response drafting.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/analysis"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/collab"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/blob"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/redisStore"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/data/store"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/domain/jobModel"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/drafting"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/extract"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/handlers"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/job"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/embedding"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/embedding/googleEmbedding"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/embedding/openaiEmbedding"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/ingest"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/llm"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/llm/gemini"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/llm/openaiLLM"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/retrieval"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB/memoryDB"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB/pgvectorDB"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/rag/vectorDB/qdrantDB"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/server"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/worker"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	settings := config.Load()
	flag.StringVar(&listenAddr, "listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobModel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	var jobStore jobModel.JobStore
	if redisJobStore := store.GetRedisJobStore(serviceContext); redisJobStore != nil {
		jobStore = redisJobStore
	} else {
		logger.Error("Redis job store is offline, falling back to in-memory")
		jobStore = store.InitInMemoryJobStore()
	}
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	})
	logger.Info("Starting job service")

	//vector store
	var vectors vectorDB.Store
	switch settings.VectorStore.Backend {
	case "qdrant":
		q := qdrantDB.GetQdrantClient(serviceContext, settings.VectorStore.Qdrant.Host, settings.VectorStore.Qdrant.Port)
		if q == nil {
			logger.Error("Qdrant failed to initialize. Shutting down.")
			return
		}
		vectors = q
	case "pgvector":
		pg, err := pgvectorDB.NewStore(serviceContext, config.PostgresDSN())
		if err != nil {
			logger.Error("pgvector failed to initialize. Shutting down.", "error", err.Error())
			return
		}
		vectors = pg
	default:
		vectors = memoryDB.NewStore()
	}

	//embedding + completion providers
	var embedder embedding.Embedder
	switch settings.Embedding.Provider {
	case "openai":
		embedder = openaiEmbedding.GetOpenAIEmbeddingClient(config.OpenAIEmbeddingModel, config.OpenAIAPIKey())
	default:
		embedder = googleEmbedding.GetGoogleEmbeddingClient(serviceContext, config.GoogleEmbeddingModel, config.GoogleAPIKey())
	}
	var completer llm.Provider
	switch settings.LLM.Provider {
	case "openai":
		completer = openaiLLM.GetOpenAIClient(config.OpenAIModelName, config.OpenAIAPIKey())
	default:
		completer = gemini.GetGeminiClient(serviceContext, config.GeminiModelName, config.GoogleAPIKey())
	}

	if embedder == nil || completer == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "EmbeddingService", embedder != nil, "LLMProvider", completer != nil)
		return
	}

	blobs, err := blob.NewStorage(settings)
	if err != nil {
		logger.Error("Blob storage failed to initialize. Shutting down.", "error", err.Error())
		return
	}

	//domain stores
	cases := store.NewInMemoryCaseStore()
	documents := store.NewInMemoryDocumentStore()
	knowledge := store.NewInMemoryKnowledgeStore()
	issues := store.NewInMemoryIssueStore()
	drafts := store.NewInMemoryDraftStore()

	//events ride the same Redis instance as the job store; offline Redis
	//just drops them
	broadcaster := collab.NewRedisBroadcaster(redisStore.GetRedisStore(serviceContext, config.RedisJobStore))

	//pipelines
	gateway := extract.NewGateway(documents, blobs)
	ingestPipeline := ingest.NewPipeline(embedder, vectors, blobs)
	retrievalEngine := retrieval.NewEngine(embedder, vectors, knowledge, settings.SimilarCaseOverFetchFactor)
	orchestrator := analysis.NewOrchestrator(cases, documents, issues, gateway, completer, ingestPipeline, broadcaster)
	draftingEngine := drafting.NewEngine(cases, issues, drafts, retrievalEngine, completer, broadcaster)
	locks := collab.NewLockManager(drafts, broadcaster)

	handlers.InitHandlers(handlers.Services{
		JobService: service,
		Cases:      cases,
		Documents:  documents,
		Knowledge:  knowledge,
		Issues:     issues,
		Drafts:     drafts,
		Blobs:      blobs,
		Retrieval:  retrievalEngine,
		Drafting:   draftingEngine,
		Locks:      locks,
	})

	//init worker pool
	worker.InitServices(service, worker.Pipelines{
		Analysis:  orchestrator,
		Drafting:  draftingEngine,
		Ingest:    ingestPipeline,
		Knowledge: knowledge,
	})
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}
