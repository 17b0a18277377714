package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/RossMurr4y/mdbook-docx/internal/logging"
	"github.com/RossMurr4y/mdbook-docx/pkg/docx/ooxml"
)

// Runtime holds process settings that are not part of the book
type Runtime struct {
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
	// Parallelism bounds how many documents build at once
	Parallelism int
	// MaxImageWidth bounds image width in pixels. 0 uses the text width.
	MaxImageWidth int
	// CacheTemplates shares parsed templates between documents
	CacheTemplates bool
}

var (
	globalRuntime      *Runtime
	globalRuntimeMutex sync.RWMutex
)

// DefaultRuntime returns the default runtime settings
func DefaultRuntime() *Runtime {
	return &Runtime{
		LogLevel:       "info",
		Parallelism:    runtime.GOMAXPROCS(0),
		MaxImageWidth:  0,
		CacheTemplates: true,
	}
}

// RuntimeFromEnvironment creates runtime settings from environment variables
func RuntimeFromEnvironment() *Runtime {
	rt := DefaultRuntime()

	// MDBOOK_DOCX_LOG_LEVEL
	if val := os.Getenv("MDBOOK_DOCX_LOG_LEVEL"); val != "" {
		rt.LogLevel = strings.ToLower(val)
	}

	// MDBOOK_DOCX_PARALLELISM
	if val := os.Getenv("MDBOOK_DOCX_PARALLELISM"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			rt.Parallelism = n
		}
	}

	// MDBOOK_DOCX_MAX_IMAGE_WIDTH
	if val := os.Getenv("MDBOOK_DOCX_MAX_IMAGE_WIDTH"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			rt.MaxImageWidth = n
		}
	}

	// MDBOOK_DOCX_CACHE_TEMPLATES
	if val := os.Getenv("MDBOOK_DOCX_CACHE_TEMPLATES"); val != "" {
		rt.CacheTemplates = parseBool(val)
	}

	return rt
}

// Validate checks if the settings are usable
func (r *Runtime) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error", "off")),
		validation.Field(&r.Parallelism, validation.Required, validation.Min(1)),
		validation.Field(&r.MaxImageWidth, validation.Min(0)),
	)
}

// MaxImageWidthEMU converts MaxImageWidth to EMUs. 0 means unset.
func (r *Runtime) MaxImageWidthEMU() int64 {
	return int64(r.MaxImageWidth) * ooxml.EMUsPerPixel
}

// Level returns the parsed log level
func (r *Runtime) Level() logging.Level {
	return logging.ParseLevel(r.LogLevel)
}

// GetRuntime returns the process-wide runtime settings
func GetRuntime() *Runtime {
	globalRuntimeMutex.RLock()
	defer globalRuntimeMutex.RUnlock()

	if globalRuntime == nil {
		return DefaultRuntime()
	}
	copied := *globalRuntime
	return &copied
}

// SetRuntime replaces the process-wide runtime settings
func SetRuntime(rt *Runtime) {
	globalRuntimeMutex.Lock()
	defer globalRuntimeMutex.Unlock()
	globalRuntime = rt
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
