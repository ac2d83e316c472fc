package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/git4ruby/rfe-ready-api-sub000/internal/adapter/utils"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/config"
	"github.com/git4ruby/rfe-ready-api-sub000/internal/middleware"
	"github.com/git4ruby/rfe-ready-api-sub000/pkg/logger_i"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

func CreateServer(listenAddr string) {
	_logger = logger_i.NewLogger("Server")

	r := utils.GetRouter()

	r.Router.Get("/health", middleware.GetHandler)
	r.Router.Get("/jobs/{id}", middleware.GetStatusHandler)

	r.Router.Post("/cases", middleware.CreateCaseHandler)
	r.Router.Get("/cases/{id}", middleware.GetCaseHandler)
	r.Router.Post("/cases/{id}/analyze", middleware.AnalyzeCaseHandler)
	r.Router.Post("/cases/{id}/action", middleware.CaseActionHandler)
	r.Router.Post("/cases/{id}/documents", middleware.UploadDocumentHandler)
	r.Router.Get("/cases/{id}/issues", middleware.ListIssuesHandler)
	r.Router.Get("/cases/{id}/similar", middleware.SimilarCasesHandler)
	r.Router.Post("/cases/{id}/drafts", middleware.GenerateDraftsHandler)

	r.Router.Post("/knowledge", middleware.CreateKnowledgeHandler)
	r.Router.Post("/knowledge/upload", middleware.UploadKnowledgeHandler)
	r.Router.Get("/knowledge/search", middleware.SearchHandler)

	r.Router.Get("/issues/{id}/drafts", middleware.ListDraftsHandler)
	r.Router.Post("/issues/{id}/drafts/regenerate", middleware.RegenerateDraftHandler)

	r.Router.Put("/drafts/{id}", middleware.EditDraftHandler)
	r.Router.Post("/drafts/{id}/approve", middleware.ApproveDraftHandler)
	r.Router.Post("/drafts/{id}/lock", middleware.LockDraftHandler)
	r.Router.Delete("/drafts/{id}/lock", middleware.UnlockDraftHandler)
	r.Router.Post("/collab/unsubscribe", middleware.UnsubscribeHandler)

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      r.Router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error :", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	println("\nServer is shutting down", state)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully: %s", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully is shutting down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
