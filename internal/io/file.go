package ioutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PrivateDirMode is the mode used for directories holding session data.
const PrivateDirMode os.FileMode = 0o700

// PrivateFileMode is the mode used for files holding session data.
const PrivateFileMode os.FileMode = 0o600

// WriteFileAtomic replaces path with data.
//
// The data is written to a temporary file in the same directory, synced,
// chmod'ed to perm and renamed over path. A missing parent directory is
// created with PrivateDirMode; an existing one is left as is. On failure
// the temporary file is removed and path is left untouched.
//
// Example:
//
//	err := WriteFileAtomic(path, data, PrivateFileMode)
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := EnsurePrivateDir(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		return cleanup(fmt.Errorf("chmod temp file: %w", err))
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// EnsurePrivateDir creates path and any missing parents with
// PrivateDirMode. Directories that already exist keep their mode: they may
// be shared, like /tmp or the working directory.
func EnsurePrivateDir(path string) error {
	if err := os.MkdirAll(path, PrivateDirMode); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// ReadFileIfExists reads path, returning (nil, nil) when it does not exist.
func ReadFileIfExists(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// ConfigDir returns the per-user configuration directory for dstask,
// honoring XDG_CONFIG_HOME.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dstask"), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("locate config directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "dstask"), nil
}
