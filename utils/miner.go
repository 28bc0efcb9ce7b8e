// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Version is the release version reported by the CLI.
const Version = "0.2.0"

// ReverseBytes reverses b in place.
func ReverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// ReverseWords4 returns a copy of b with the bytes of each 4-byte word
// reversed. The transform is its own inverse. len(b) must be a multiple
// of 4.
func ReverseWords4(b []byte) ([]byte, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("length %d is not a multiple of 4", len(b))
	}
	out := make([]byte, len(b))
	for i := 0; i < len(b); i += 4 {
		out[i] = b[i+3]
		out[i+1] = b[i+2]
		out[i+2] = b[i+1]
		out[i+3] = b[i]
	}
	return out, nil
}

// NextPow2 returns the smallest power of two >= n. n must be positive.
func NextPow2(n int) uint32 {
	step := uint32(1)
	for step < uint32(n) {
		step <<= 1
	}
	return step
}

// FileExists reports whether the named file exists.
func FileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		return !os.IsNotExist(err)
	}
	return true
}

// CreateFileLogger returns a logger appending JSON lines to the named
// file, falling back to the global console logger if it cannot be opened.
func CreateFileLogger(path string) zerolog.Logger {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("falling back to console logging")
		return log.Logger
	}
	return zerolog.New(f).With().Timestamp().Logger()
}

// GetFullPath resolves name relative to the running executable's directory.
func GetFullPath(name string) (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), name), nil
}
