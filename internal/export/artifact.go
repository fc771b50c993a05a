package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrUnknownCompression is returned for unsupported compression names.
var ErrUnknownCompression = errors.New("unknown compression")

// Compression selects how WriteArtifact encodes the file on disk.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression validates a compression name. Empty means none.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(name))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCompression, name)
	}
}

func (c Compression) suffix() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// Artifact is an export ready to be handed to a download collaborator.
type Artifact struct {
	Filename string
	MIMEType string
	Content  string
}

// NewArtifact names content after base, the format extension and now.
func NewArtifact(base string, format Format, content string, now time.Time) Artifact {
	return Artifact{
		Filename: TimestampedFilename(base, format.Extension(), now),
		MIMEType: format.MIMEType() + ";charset=utf-8",
		Content:  content,
	}
}

// TimestampedFilename returns "<base>_<YYYY-MM-DD_HH-MM-SS>.<ext>" using UTC.
func TimestampedFilename(base, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", base, now.UTC().Format("2006-01-02_15-04-05"), ext)
}

// WriteArtifact stores a in dir, optionally compressed, and returns the file path.
func WriteArtifact(dir string, a Artifact, compression Compression) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, a.Filename+compression.suffix())
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	if err := Encode(file, a.Content, compression); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, file.Close()
}

// Encode writes content to w with the given compression.
func Encode(w io.Writer, content string, compression Compression) error {
	switch compression {
	case CompressionGzip:
		zw := gzip.NewWriter(w)
		if _, err := io.WriteString(zw, content); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(zw, content); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	case "", CompressionNone:
		_, err := io.WriteString(w, content)
		return err
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCompression, compression)
	}
}
