// Package stt turns learner audio into text.
package stt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	errx "github.com/chative-tutor/server/internal/core/error"
)

// ErrEmptyAudio is returned when no audio bytes were uploaded.
var ErrEmptyAudio = errors.New("audio data is empty")

// Service transcribes a single uploaded utterance.
type Service interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, config Config) (string, error)
}

// Config describes one transcription request.
type Config struct {
	// Filename of the upload; its extension selects the container format.
	Filename string
	// Language is a hint such as "en".
	Language string
	// Model overrides the provider default.
	Model string
}

// Format returns the lowercased file extension without the dot, "webm" when unknown.
func (c Config) Format() string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(c.Filename)), ".")
	if ext == "" {
		return "webm"
	}
	return ext
}

func providerError(provider string, status int, detail string, cause error) error {
	if cause == nil {
		cause = fmt.Errorf("%s responded %d: %s", provider, status, detail)
	}
	return errx.New(cause, http.StatusBadGateway, provider+" transcription failed")
}
