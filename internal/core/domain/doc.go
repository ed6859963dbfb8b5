// Package domain defines the core business entities for kbsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceDocument: A source-of-truth knowledge document
//   - Chunk: The unit of text that is embedded and indexed
//   - SyncState: A document's representation in the vector index
//   - ConversationTurn: One message of a chat conversation
//   - Metric: The distance function a vector collection is bound to
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
