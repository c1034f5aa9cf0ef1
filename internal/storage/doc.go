// Package storage provides an in-memory blob store used by the
// reference volume server's --mem mode, as a disk-free alternative to
// writing files under --data-dir. MemoryStore implements the small
// Get/Put/Delete/List Store interface; the disk-backed handler works on
// files directly and does not go through that interface.
package storage
