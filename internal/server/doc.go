// Package server exposes internal/session.Service's control surface
// (spec §6.1) as an HTTP API: create, start, pause, resume, terminate,
// reset, revert, delete, event, events, events/stream (SSE), diff,
// response, status, and config — one route per operation, nested under
// /session/{name}.
//
// The server is a thin transport shell: handlers decode the request,
// call the matching Service method, and map the result/error onto an
// HTTP response. All session lifecycle and event-loop semantics live in
// internal/session; nothing here re-implements or bypasses it.
//
// Usage:
//
//	cfg := server.DefaultConfig()
//	cfg.Port = 8080
//	srv := server.New(cfg, sessionService)
//	log.Fatal(srv.Start())
package server
