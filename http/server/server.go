package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gclaussn/go-bpmn-diagram/diagram"
	"github.com/gclaussn/go-bpmn-diagram/drawio"
	"github.com/gclaussn/go-bpmn-diagram/store"
	"github.com/gclaussn/go-bpmn-diagram/style"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func New(s store.Store, customizers ...func(*Options)) (*Server, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	var handler http.Handler = mux
	if options.BasicAuthUsername != "" {
		handler = &basicAuthHandler{
			username: options.BasicAuthUsername,
			password: options.BasicAuthPassword,
			handler:  mux,
		}
	}

	// server-wide context for incoming requests
	httpServerCtx, httpServerCancel := context.WithCancel(context.Background())

	httpServer := http.Server{
		Addr: options.BindAddress,
		BaseContext: func(_ net.Listener) context.Context {
			return httpServerCtx
		},
		Handler:      http.TimeoutHandler(handler, options.HandlerTimeout, "handler timed out"),
		IdleTimeout:  options.IdleTimeout,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
	}

	if options.Configure != nil {
		options.Configure(&httpServer)
	}

	server := Server{
		store:            s,
		httpServer:       &httpServer,
		httpServerCtx:    httpServerCtx,
		httpServerCancel: httpServerCancel,
		metrics:          newMetrics(),
		options:          options,
	}

	mux.HandleFunc("POST "+PathDiagrams, server.createDiagram)
	mux.HandleFunc("GET "+PathDiagrams, server.queryDiagrams)
	mux.HandleFunc("POST "+PathDiagramsConvert, server.convertDiagram)
	mux.HandleFunc("GET "+PathDiagramsId, server.getDiagram)
	mux.HandleFunc("DELETE "+PathDiagramsId, server.deleteDiagram)
	mux.HandleFunc("POST "+PathDiagramsValidate, server.validateDiagram)

	mux.Handle("GET "+PathMetrics, promhttp.HandlerFor(server.metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET "+PathReadiness, server.checkReadiness)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return &server, nil
}

func NewOptions() Options {
	return Options{
		BindAddress: "127.0.0.1:8080",

		HandlerTimeout: 30 * time.Second,
		IdleTimeout:    60 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   35 * time.Second,

		ShutdownDelay:       5 * time.Second,
		ShutdownPeriod:      30 * time.Second,
		ShutdownForcePeriod: 5 * time.Second,
	}
}

type Options struct {
	BindAddress string // TCP address for the server to listen on.

	HandlerTimeout time.Duration // Time limit for HTTP handler - when reached, the handler responds with HTTP 503.
	IdleTimeout    time.Duration // Maximum amount of time to wait for the next request, when keep-alives are enabled - see http.Server#IdleTimeout
	ReadTimeout    time.Duration // Maximum duration for reading the entire request - see http.Server#ReadTimeout
	WriteTimeout   time.Duration // Maximum duration before timing out writing the response - see http.Server#WriteTimeout

	ShutdownDelay       time.Duration // Delay between the shutdown signal and the actual shutdown, used to propagate readiness.
	ShutdownPeriod      time.Duration // Period for a graceful shutdown without interrupting ongoing requests.
	ShutdownForcePeriod time.Duration // Period for a forced shutdown, where ongoing requests are canceled.

	BasicAuthUsername string // Optional username - when set, all requests except readiness must be authenticated.
	BasicAuthPassword string // Only required if BasicAuthUsername is set.

	Configure func(*http.Server) // Optional function, used to configure the underlying HTTP server if needed.
}

func (o Options) Validate() error {
	if (o.BasicAuthUsername == "") != (o.BasicAuthPassword == "") {
		return errors.New("basic auth username and password must be provided together")
	}

	return nil
}

type Server struct {
	store            store.Store
	httpServer       *http.Server
	httpServerCtx    context.Context    // server-wide base context for incoming requests
	httpServerCancel context.CancelFunc // invoked after server shutdown to cancel ongoing requests
	isShuttingDown   atomic.Bool
	metrics          *metrics
	options          Options
}

func (s *Server) ListenAndServe() {
	go func() {
		log.Infof("server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("failed to listen and serve HTTP: %v", err)
		}
	}()
}

func (s *Server) Shutdown() {
	s.isShuttingDown.Store(true)
	log.Info("server is shutting down")

	time.Sleep(s.options.ShutdownDelay)
	log.Info("server is shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.options.ShutdownPeriod)
	defer shutdownCancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.httpServerCancel()
	if err != nil {
		log.Errorf("failed to shutdown HTTP server: %v", err)
		time.Sleep(s.options.ShutdownForcePeriod)
	}

	s.store.Shutdown()
	log.Info("server shut down")
}

// convert runs a conversion with options derived from cmd, counting the outcome.
func (s *Server) convert(cmd ConvertDiagramCmd) (*diagram.Result, error) {
	styleResolver := style.NewResolver(style.Default())
	if cmd.Theme != "" {
		theme, err := style.New(cmd.Theme)
		if err != nil {
			return nil, Problem{
				Status: http.StatusBadRequest,
				Type:   ProblemTypeValidation,
				Title:  "invalid theme",
				Detail: err.Error(),
			}
		}

		styleResolver = style.NewResolver(theme)
	}

	result, err := diagram.Convert(strings.NewReader(cmd.BpmnXml), func(o *diagram.Options) {
		o.Logger = log.Default()
		o.StyleResolver = styleResolver

		if cmd.Direction != "" {
			o.Direction = diagram.MapDirection(cmd.Direction)
		}
		if cmd.Mode != "" {
			o.Mode = diagram.MapLayoutMode(cmd.Mode)
		}
	})
	if err != nil {
		s.metrics.conversions.WithLabelValues(outcomeFailed).Inc()
		return nil, err
	}

	s.metrics.conversions.WithLabelValues(outcomeConverted).Inc()
	s.metrics.warnings.Add(float64(len(result.Warnings)))

	return result, nil
}

// command handler

func (s *Server) convertDiagram(w http.ResponseWriter, r *http.Request) {
	var cmd ConvertDiagramCmd
	if err := decodeConvertDiagramCmd(w, r, &cmd); err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	result, err := s.convert(cmd)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	if acceptsXml(r) {
		encodeXmlResponseBody(w, r, result)
		return
	}

	resBody := ConvertDiagramRes{
		Name:         result.Name,
		CellCount:    len(result.Cells),
		WarningCount: len(result.Warnings),
		Cells:        result.Cells,
		Warnings:     result.Warnings,
	}

	encodeJSONResponseBody(w, r, resBody, http.StatusOK)
}

func (s *Server) createDiagram(w http.ResponseWriter, r *http.Request) {
	var cmd CreateDiagramCmd
	if err := decodeCreateDiagramCmd(w, r, &cmd); err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	result, err := s.convert(ConvertDiagramCmd{
		BpmnXml:   cmd.BpmnXml,
		Direction: cmd.Direction,
		Mode:      cmd.Mode,
		Theme:     cmd.Theme,
	})
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	drawioXml, err := drawio.Marshal(result)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	name := cmd.Name
	if name == "" {
		name = result.Name
	}

	created, err := s.store.CreateDiagram(r.Context(), store.CreateDiagramCmd{
		Name:         name,
		SourceXml:    cmd.BpmnXml,
		OutputXml:    string(drawioXml),
		WarningCount: len(result.Warnings),
	})
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	encodeJSONResponseBody(w, r, created, http.StatusCreated)
}

func (s *Server) deleteDiagram(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	if err := s.store.DeleteDiagram(r.Context(), id); err != nil {
		encodeJSONProblemResponseBody(w, r, fmt.Errorf("failed to delete diagram %s: %w", id, err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateDiagram(w http.ResponseWriter, r *http.Request) {
	var cmd ValidateDiagramCmd
	if err := decodeValidateDiagramCmd(w, r, &cmd); err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	warnings, err := diagram.Validate(strings.NewReader(cmd.BpmnXml))
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	resBody := ValidateDiagramRes{
		Count:    len(warnings),
		Warnings: warnings,
	}

	encodeJSONResponseBody(w, r, resBody, http.StatusOK)
}

// query handler

func (s *Server) getDiagram(w http.ResponseWriter, r *http.Request) {
	id, err := parseId(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	storedDiagram, err := s.store.GetDiagram(r.Context(), id)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, fmt.Errorf("failed to get diagram %s: %w", id, err))
		return
	}

	encodeJSONResponseBody(w, r, storedDiagram, http.StatusOK)
}

func (s *Server) queryDiagrams(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseDiagramCriteria(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	diagrams, err := s.store.ListDiagrams(r.Context(), criteria)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	resBody := DiagramRes{
		Count:   len(diagrams),
		Results: diagrams,
	}

	encodeJSONResponseBody(w, r, resBody, http.StatusOK)
}

// management

func (s *Server) checkReadiness(w http.ResponseWriter, r *http.Request) {
	if s.isShuttingDown.Load() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ready"))
}
