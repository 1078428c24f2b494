// Package services implements the driving port interfaces.
// Services hold the retrieval pipeline: embedding with batching and
// retries, concurrent ingestion, retrieval, and context assembly for
// chat. They depend only on driven ports, never on concrete adapters.
package services
