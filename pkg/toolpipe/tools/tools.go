// Package tools provides the built-in tool catalog served by toolhost.
package tools

import (
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

// DefaultAllowedDomains are the only hosts fetch_url will contact.
var DefaultAllowedDomains = []string{
	"httpbin.org",
	"jsonplaceholder.typicode.com",
	"api.github.com",
}

const (
	defaultFetchTimeout = 5 * time.Second
	defaultPreviewChars = 500
	maxFetchBytes       = 1 << 20
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// IntN yields pseudo-random integers in [0, n). *rand.Rand satisfies it.
type IntN interface {
	IntN(n int) int
}

// Options injects the collaborators the tools depend on. Zero values use
// the wall clock, the global random source and http.DefaultClient.
type Options struct {
	Now            func() time.Time
	Rand           IntN
	HTTPClient     Doer
	AllowedDomains []string
	FetchTimeout   time.Duration
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Rand == nil {
		o.Rand = globalRand{}
	}
	if o.HTTPClient == nil {
		o.HTTPClient = http.DefaultClient
	}
	if o.AllowedDomains == nil {
		o.AllowedDomains = DefaultAllowedDomains
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = defaultFetchTimeout
	}

	return o
}

// Catalog returns every built-in tool in advertisement order.
func Catalog(opts Options) []registry.Tool {
	opts = opts.withDefaults()

	return []registry.Tool{
		Echo(),
		Add(),
		GetTime(opts.Now),
		CheckWeather(opts.Rand),
		Calculate(),
		FetchURL(opts.HTTPClient, opts.AllowedDomains, opts.FetchTimeout),
	}
}

// NewRegistry builds a registry holding the full catalog.
func NewRegistry(opts Options) (*registry.Registry, error) {
	return registry.New(Catalog(opts)...)
}
