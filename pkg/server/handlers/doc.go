// Package handlers implements the HTTP handlers of the Galvani API:
// simulation submission, stored run retrieval, and health probes.
package handlers
