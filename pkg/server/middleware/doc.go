// Package middleware provides HTTP middleware for the Galvani API server:
// panic recovery, request ID propagation, and structured request logging.
//
// The intended chain, outermost first. Request ID assignment precedes
// logging so request logs carry the ID:
//
//	handler = RecoveryMiddleware(RequestIDMiddleware(LoggingMiddleware(mux)))
package middleware
