// Package provider routes summarization prompts to text-generation backends.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Mode selects the summary style requested from a provider.
type Mode string

const (
	ModeBrief    Mode = "brief"
	ModeExtended Mode = "extended"
)

// Names of the built-in providers.
const (
	MockName   = "mock"
	OpenAIName = "openai"
)

var (
	// ErrUnknownProvider is returned when dispatching to a name nobody registered.
	ErrUnknownProvider = errors.New("provider not registered")
	// ErrMissingCredential is returned by live providers built without an API key.
	ErrMissingCredential = errors.New("provider credential is missing")
	// ErrUnknownMode is returned for modes other than brief and extended.
	ErrUnknownMode = errors.New("unknown summary mode")
)

// Valid reports whether m is one of the supported modes.
func (m Mode) Valid() bool {
	return m == ModeBrief || m == ModeExtended
}

// Provider generates text for a prompt in the given mode and category.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string, mode Mode, category string) (string, error)
}

// Router keeps a mapping from provider names to their implementations.
type Router struct {
	providers map[string]Provider
}

// NewRouter builds a router with the given providers registered.
func NewRouter(providers ...Provider) *Router {
	r := &Router{providers: map[string]Provider{}}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider under its name.
func (r *Router) Register(p Provider) {
	if p == nil {
		return
	}
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[p.Name()] = p
}

// Resolve returns the provider registered under name.
func (r *Router) Resolve(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("provider %s: %w", name, ErrUnknownProvider)
}

// Names lists registered providers in sorted order.
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Complete dispatches prompt to the named provider.
func (r *Router) Complete(ctx context.Context, prompt, name string, mode Mode, category string) (string, error) {
	p, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return p.Complete(ctx, prompt, mode, category)
}
