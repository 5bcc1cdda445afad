// Package ioutils provides file system helpers for dstask.
//
// This package contains functions for:
//   - Atomic file replacement (write to a temp file, then rename)
//   - Owner-only directory creation
//   - Per-user configuration paths
//
// # Atomic Writes
//
//	err := ioutils.WriteFileAtomic("/home/me/.config/dstask/session.json", data, 0o600)
//
// Readers of the target path see either the old content or the new
// content, never a partial write.
package ioutils
