// Package record defines the metadata stored under each key in the
// index and its on-disk codec.
//
// A Record is encoded as a small fixed-framed binary layout rather than
// JSON: a version byte, a deleted-tag byte, the 16-byte raw MD5 digest,
// a volume count, and length-prefixed volume strings. The layout is a
// total bijection — Decode(Encode(r)) always reproduces r exactly, and
// any byte string that isn't a valid encoding fails closed with
// ErrCorrupt rather than silently decoding into a different record.
package record
