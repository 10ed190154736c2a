// Package memory provides long-term conversational memory for the
// concierge. Exchanges (user message + assistant reply) are embedded and
// stored per user, then retrieved by similarity to enrich later turns.
// This is how "which one was cheapest among those products?" keeps working
// across sessions.
//
// Architecture:
//   - Store: vector storage backend (chromem-go in-process)
//   - Embedder: text-to-vector conversion (Gemini API, or a deterministic
//     mock for tests)
//   - Manager: decides what is worth remembering and how retrieved
//     memories are formatted for prompt injection
package memory
