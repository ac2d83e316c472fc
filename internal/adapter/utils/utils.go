package utils

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/git4ruby/rfe-ready-api-sub000/cmd/api/docs"
)

var once sync.Once
var router *chi.Mux

func GetNewUUID() string {
	return uuid.New().String()
}

type RouterClient struct {
	Router *chi.Mux
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

func GetRouter() RouterClient {
	once.Do(func() {
		router = chi.NewRouter()
		InitSwagger(router)
		//register prometheus
		router.Handle("/metrics", promhttp.Handler())
	})

	return RouterClient{Router: router}
}

func InitSwagger(r *chi.Mux) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
