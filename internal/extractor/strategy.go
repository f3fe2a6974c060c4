package extractor

import (
	"context"
	"time"
)

// Default descriptor values applied to zero fields
const (
	DefaultName     = "unnamed"
	DefaultTimeout  = 30 * time.Second
	DefaultPriority = 100
)

// VideoIDLength is the length of a YouTube video identifier
const VideoIDLength = 11

// Request identifies the target video and carries extraction options.
// Immutable per call.
type Request struct {
	VideoID    string
	Languages  []string // preferred language tags, "*" matches any
	Timestamps bool
	Timeout    time.Duration // overrides the strategy default when > 0
	WorkDir    string        // scratch root for strategies needing disk
}

// withDefaults fills unset options
func (r Request) withDefaults() Request {
	if len(r.Languages) == 0 {
		r.Languages = []string{"en", "*"}
	}
	return r
}

// Outcome is the uniform result of an extraction attempt. Exactly one
// of the success/failure shapes is populated; consumers branch on
// Success.
type Outcome struct {
	Success    bool      `json:"success"`
	Transcript string    `json:"transcript,omitempty"`
	Language   string    `json:"language,omitempty"`
	Source     string    `json:"source"`
	Error      string    `json:"error,omitempty"`
	Kind       ErrorKind `json:"error_type,omitempty"`
}

func succeeded(source, transcript, language string) Outcome {
	return Outcome{
		Success:    true,
		Transcript: transcript,
		Language:   language,
		Source:     source,
	}
}

func failed(source string, kind ErrorKind, message string) Outcome {
	return Outcome{
		Success: false,
		Error:   message,
		Kind:    kind,
		Source:  source,
	}
}

// Descriptor is per-strategy static configuration, immutable after
// construction. A nil Enabled means enabled; constructors that gate on
// a credential set it explicitly via enabledWhen.
type Descriptor struct {
	Name     string
	Timeout  time.Duration
	Enabled  *bool
	Priority int
}

// enabledWhen expresses an explicit Enabled value for a Descriptor
func enabledWhen(v bool) *bool {
	return &v
}

// normalize fills unset fields with defaults
func (d Descriptor) normalize() Descriptor {
	if d.Name == "" {
		d.Name = DefaultName
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultTimeout
	}
	if d.Enabled == nil {
		d.Enabled = enabledWhen(true)
	}
	if d.Priority == 0 {
		d.Priority = DefaultPriority
	}
	return d
}

// Strategy is the capability contract every extraction backend
// implements. Extract never panics; all failures are converted to the
// failure Outcome shape at the strategy boundary.
type Strategy interface {
	Name() string
	Priority() int
	Enabled() bool
	Timeout() time.Duration

	// Available reports whether the backend can be used right now. It
	// may perform a bounded probe (e.g. a version check) but is
	// side-effect-free with respect to any target video.
	Available(ctx context.Context) bool

	Extract(ctx context.Context, req Request) Outcome
}

// base provides the read-only descriptor accessors shared by all
// strategy implementations.
type base struct {
	desc Descriptor
}

func newBase(desc Descriptor) base {
	return base{desc: desc.normalize()}
}

func (b *base) Name() string           { return b.desc.Name }
func (b *base) Priority() int          { return b.desc.Priority }
func (b *base) Enabled() bool          { return *b.desc.Enabled }
func (b *base) Timeout() time.Duration { return b.desc.Timeout }

// effectiveTimeout picks the request override when present
func (b *base) effectiveTimeout(req Request) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	return b.desc.Timeout
}
