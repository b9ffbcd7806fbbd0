package main

import (
	"encoding/json"
	"net/http"

	"github.com/caremesh/interlink/internal/manager"
)

func setupRouter(mgr *manager.Manager) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /services/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.AllHealth())
	})

	mux.HandleFunc("GET /services/breakers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, mgr.BreakerStats())
	})

	return mux
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
