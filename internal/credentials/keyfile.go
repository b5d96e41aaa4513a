// Package credentials stores and retrieves the Netlify personal access token.
package credentials

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrTokenNotFound is returned when no token is stored.
var ErrTokenNotFound = errors.New("token not found")

// DefaultKeyFile returns ~/.netlify, or an empty string if the home directory is unknown.
func DefaultKeyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".netlify")
}

// ReadKeyFile returns the first line of the key file at path.
// The file must be readable by its owner only.
func ReadKeyFile(path string) (string, error) {
	if err := VerifyPermissions(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("key file %q: %w", path, ErrTokenNotFound)
		}
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading key: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	line, _, err := r.ReadLine()
	if err != nil {
		return "", fmt.Errorf("error reading line: %w", err)
	}
	key := strings.TrimSpace(string(line))
	if key == "" {
		return "", fmt.Errorf("key file %q is empty: %w", path, ErrTokenNotFound)
	}
	return key, nil
}

// VerifyPermissions requires path to have mode 0600 or 0400.
func VerifyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking keyfile permissions: %w", err)
	}

	perms := info.Mode().Perm()
	// 0400 is accepted too, secrets managers often mount files read-only
	if perms != 0600 && perms != 0400 {
		return fmt.Errorf("invalid permissions for %q: expected file permissions \"-rw-------\"; found \"%s\"", path, perms)
	}
	return nil
}

// WriteKeyFile creates path with mode 0600 and writes key to it.
// An existing file is never overwritten.
func WriteKeyFile(path, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("key cannot be empty")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", path, err)
	}
	if _, err := fmt.Fprintln(f, key); err != nil {
		f.Close()
		return fmt.Errorf("unable to write %q: %w", path, err)
	}
	return f.Close()
}
