// Package server provides the HTTP server for the VoteMe API.
//
// It uses gorilla/mux for routing and gorilla/handlers for access logs.
// Every request gets a request id and its client address recorded in the
// context for audit events.
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//	endpoints.RegisterAll(srv)
//
// This registers:
//
//   - POST /users/{username} - register an identity
//   - GET /users/{username}/salt - fetch a salt
//   - POST /users/{username}/login - issue a fresh token
//   - GET /votings, PUT /votings/{name}, POST /votings/{name}/votes
//   - GET / - status, GET /metrics - Prometheus metrics
package server
