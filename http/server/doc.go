// Package server implements the HTTP API for diagram conversion and storage.
/*
server implements handlers for converting, validating and managing diagrams, using the [net/http] package.

Run a Server

A server requires a store, which is used to persist converted diagrams.
For authentication, basic auth username and password can be set - otherwise the API is unprotected.

A server is listening on "127.0.0.1:8080".
The TCP bind address as well as various timeouts can be configured by customizing the configuration.

	server, err := server.New(diagramStore, func(o *server.Options) {
		o.BasicAuthUsername = username
		o.BasicAuthPassword = password
	})
	if err != nil {
		log.Fatalf("failed to create HTTP server: %v", err)
	}

	server.ListenAndServe()

	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGTERM)

	<-signalC

	server.Shutdown()
*/
package server
