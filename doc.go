// Package lyb implements a binary serializer for structured, schema-shaped
// data trees (the "LYB" format: a compact, streamable encoding of a forest
// of data nodes shaped by an externally supplied schema).
//
// The format is not self-describing: a decoder must hold the same schema
// context as the encoder. It is strictly forward-writable (no random
// access) and is not guaranteed stable across incompatible schema
// revisions of the same module. The header byte is reserved for a future
// version/flags use and is currently always 0.
package lyb

// Version is the LYB stream format version this encoder writes into the
// reserved header byte. The format has never incremented this.
const Version = 0
