package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

type basicAuthHandler struct {
	username string
	password string
	handler  http.Handler
}

func (h *basicAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.RequestURI == PathReadiness {
		h.handler.ServeHTTP(w, r)
		return
	}

	username, password, ok := r.BasicAuth()
	if !ok || username != h.username || password != h.password {
		log.Warnf("%s %s: authentication failed for %s", r.Method, r.RequestURI, r.RemoteAddr)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	h.handler.ServeHTTP(w, r)
}
