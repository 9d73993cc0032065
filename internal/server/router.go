// Package server provides the shared HTTP server with per-domain routing
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/hostrouter"
)

type Server struct {
	*http.Server

	hostRouter hostrouter.Routes
}

// New creates a server listening on addr
func New(addr string) *Server {
	hr := hostrouter.New()

	s := &Server{
		Server: &http.Server{
			Addr: addr,
		},
		hostRouter: hr,
	}

	r := chi.NewRouter()
	r.Mount("/", hr)
	s.Server.Handler = r

	return s
}

// RegisterDomain routes requests for a domain to the given router
func (s *Server) RegisterDomain(domain string, router chi.Router) {
	s.hostRouter.Map(domain, router)
}

// RegisterDefault routes requests for unmatched domains to the given router
func (s *Server) RegisterDefault(router chi.Router) {
	s.hostRouter.Map("*", router)
}
