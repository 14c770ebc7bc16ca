package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meetlens/meetlens/pkg/buildinfo"
)

func NewRouter(handler *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/uploads", handler.Upload)
	mux.HandleFunc("/v1/records", handler.ListRecords)
	mux.HandleFunc("/v1/records/", handler.GetRecord)
	mux.HandleFunc("/healthz", handler.Health)
	mux.HandleFunc("/version", buildinfo.Handler("meetlens"))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
