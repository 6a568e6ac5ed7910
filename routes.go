package main

import (
	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router) {
	// Extraction endpoints
	router.HandleFunc("/extract-text", extractTextHandler).Methods("POST")
	router.HandleFunc("/batch-extract", batchExtractHandler).Methods("POST")

	// Cache management endpoints (token protected)
	router.HandleFunc("/cache", getCacheStats)
	router.HandleFunc("/cache/clear", clearCache)

	// Health and stats endpoints
	router.HandleFunc("/health", getHealthStatus)
	router.HandleFunc("/stats", getStats)

	// Circuit breaker endpoints
	router.HandleFunc("/circuit-breaker", getCircuitBreakerStatus)
	router.HandleFunc("/circuit-breaker/reset", resetCircuitBreaker)

	// Help endpoint
	router.HandleFunc("/", helpHandler)
}
