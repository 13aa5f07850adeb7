// Package fileutil provides file and path utility functions.
package fileutil

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// WriteTempFile creates a temporary file with the given content and extension.
// Returns the file path and a cleanup function to remove the file.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp("", "sitepdf-*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := tmpFile.WriteString(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// WriteFileAtomic writes the output of fill to path through a temporary file
// in the same directory, renamed into place only when fill succeeds. On
// error nothing is left at path.
func WriteFileAtomic(path string, perm os.FileMode, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	fail := func(err error) error {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := fill(tmpFile); err != nil {
		return fail(err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		return fail(fmt.Errorf("setting permissions: %w", err))
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ValidateExtension checks that the extension is safe for use in temp file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// MD5File returns the upper-case hex MD5 digest of the file at path.
func MD5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))), nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	windowsDeviceNames  = map[string]bool{
		"CON": true, "AUX": true, "COM1": true, "COM2": true, "COM3": true, "COM4": true,
		"LPT1": true, "LPT2": true, "LPT3": true, "PRN": true, "NUL": true,
	}
)

// SecureFilename returns an ASCII-only version of name that is safe to use
// as a file name on any platform. Accents are folded, path separators
// become word breaks, words are joined with underscores, and Windows device
// names get a leading underscore. The result may be empty.
//
// Examples:
//   - "My cool movie.mov" -> "My_cool_movie.mov"
//   - "../../../etc/passwd" -> "etc_passwd"
//   - "Données Privées" -> "Donnees_Privees"
func SecureFilename(name string) string {
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(fold, name)
	if err != nil {
		ascii = name
	}

	for _, sep := range []string{"/", "\\"} {
		ascii = strings.ReplaceAll(ascii, sep, " ")
	}
	out := unsafeFilenameChars.ReplaceAllString(strings.Join(strings.Fields(ascii), "_"), "")
	out = strings.Trim(out, "._")

	if out != "" {
		stem := strings.ToUpper(strings.SplitN(out, ".", 2)[0])
		if windowsDeviceNames[stem] {
			out = "_" + out
		}
	}
	return out
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
//
// Examples:
//   - "professional" -> false (name)
//   - "./custom.css" -> true (relative path)
//   - "../shared/style.css" -> true (parent path)
//   - "/absolute/path.css" -> true (absolute)
//   - "C:\windows\path.css" -> true (Windows)
//   - "my-style" -> false (hyphenated name)
//   - "sub/dir" -> true (contains separator)
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsCSS returns true if the string looks like inline CSS rather than a
// name or a path.
func IsCSS(s string) bool {
	return strings.ContainsAny(s, "{}")
}

// IsURL returns true if the string looks like a URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
