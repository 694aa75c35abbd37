package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angeloszaimis/vault-environment/internal/diagnostics"
	"github.com/angeloszaimis/vault-environment/internal/handler"
)

func setupRouter(
	environmentHandler *handler.EnvironmentHandler,
	accountHandler *handler.AccountHandler,
	collector *diagnostics.Collector,
	gatherer prometheus.Gatherer,
) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /environment", environmentHandler.Current)
	mux.HandleFunc("POST /environment/reload", environmentHandler.Reload)
	mux.HandleFunc("PUT /environment/pre-auth", environmentHandler.SetPreAuth)
	mux.HandleFunc("PUT /accounts/active", accountHandler.SignIn)
	mux.HandleFunc("DELETE /accounts/active", accountHandler.SignOut)
	mux.HandleFunc("GET /diagnostics", collector.Handler())
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}
