package perfil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrInvalidMediaType = errors.New("invalid image type")
	ErrImageTooLarge    = errors.New("image exceeds the maximum size")
)

const defaultMaxImageSize = 5 * 1024 * 1024

// ImageConfig bounds what uploads are accepted.
type ImageConfig struct {
	MaxBytes     int64
	AllowedTypes []string
}

// ImageConfigFromEnv reads the upload limits from environment variables.
func ImageConfigFromEnv() ImageConfig {
	max := int64(defaultMaxImageSize)
	if v, err := strconv.ParseInt(os.Getenv("MAX_IMAGE_SIZE"), 10, 64); err == nil && v > 0 {
		max = v
	}
	allowed := []string{"image/jpeg", "image/png"}
	if raw := os.Getenv("ALLOWED_IMAGE_TYPES"); raw != "" {
		allowed = allowed[:0]
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				allowed = append(allowed, t)
			}
		}
	}
	return ImageConfig{MaxBytes: max, AllowedTypes: allowed}
}

// validateImage checks an upload against the configured allow-list and
// size ceiling and returns its bytes. The declared-type check runs first,
// before any body read, so an oversized payload of a rejected type never
// gets consumed. The stream is seeked back to the start afterwards: the
// part may only allow one read pass and callers could still need it.
func validateImage(file multipart.File, header *multipart.FileHeader, cfg ImageConfig) ([]byte, error) {
	declared := header.Header.Get("Content-Type")
	if !slices.Contains(cfg.AllowedTypes, declared) {
		return nil, fmt.Errorf("%w: allowed types are %s", ErrInvalidMediaType, strings.Join(cfg.AllowedTypes, ", "))
	}
	data, err := io.ReadAll(io.LimitReader(file, cfg.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > cfg.MaxBytes {
		return nil, fmt.Errorf("%w of %dMB", ErrImageTooLarge, cfg.MaxBytes/(1024*1024))
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return data, nil
}

// sniffImageType labels stored bytes by their magic-number prefix rather
// than any client-declared type. An unrecognized prefix falls back to
// octet-stream unless the allow-list pins exactly one image type.
func sniffImageType(data []byte, allowed []string) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return "image/jpeg"
	}
	if len(allowed) == 1 {
		return allowed[0]
	}
	return "application/octet-stream"
}
