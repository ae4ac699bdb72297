package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter 组装 HTTP 路由：WebSocket 接入、管理接口、可选静态资源
func NewRouter(w *World, cfg Config) http.Handler {
	admin := NewAdminAPI(w)

	r := mux.NewRouter()
	r.Handle("/ws", NewWSHandler(w, cfg.AllowedOrigins, cfg.MaxMessageBytes)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/metrics", admin.HandleMetrics).Methods(http.MethodGet)

	a := r.PathPrefix("/admin").Subrouter()
	a.HandleFunc("/config", admin.HandleGetConfig).Methods(http.MethodGet)
	a.HandleFunc("/config", admin.HandleUpdateConfig).Methods(http.MethodPost)
	a.HandleFunc("/sessions", admin.HandleSessions).Methods(http.MethodGet)
	a.HandleFunc("/announce", admin.HandleAnnounce).Methods(http.MethodPost)

	// 前后端分离：将 / 映射到静态资源目录（客户端渲染不在服务端范围内）
	if cfg.StaticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))
	}

	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
}
