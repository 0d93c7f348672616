package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/baalimago/go_away_boilerplate/pkg/testboil"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

type fixedRand []int

func (f *fixedRand) IntN(n int) int {
	v := (*f)[0]
	*f = (*f)[1:]

	return v % n
}

func newTestRegistry(t *testing.T, opts Options) *registry.Registry {
	t.Helper()

	reg, err := NewRegistry(opts)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	return reg
}

func invoke(t *testing.T, reg *registry.Registry, name string, args registry.Arguments) (string, bool) {
	t.Helper()

	res, err := reg.Invoke(context.Background(), name, args)
	if err != nil {
		t.Fatalf("Invoke(%s) failed: %v", name, err)
	}

	return res.Text(), res.IsError
}

func TestCatalog(t *testing.T) {
	reg := newTestRegistry(t, Options{})

	var names []string
	for _, d := range reg.List() {
		names = append(names, d.Name)
		if d.Description == "" {
			t.Errorf("Tool %s has no description", d.Name)
		}
		if d.InputSchema.Type != "object" {
			t.Errorf("Tool %s schema type = %q", d.Name, d.InputSchema.Type)
		}
	}

	testboil.FailTestIfDiff(t, strings.Join(names, ","), "echo,add,get_time,check_weather,calculate,fetch_url")
}

func TestEcho(t *testing.T) {
	reg := newTestRegistry(t, Options{})

	text, isErr := invoke(t, reg, "echo", registry.Arguments{"message": "hello"})
	testboil.FailTestIfDiff(t, text, "Echo: hello")
	testboil.FailTestIfDiff(t, isErr, false)

	text, _ = invoke(t, reg, "echo", registry.Arguments{})
	testboil.FailTestIfDiff(t, text, "Echo: ")
}

func TestAdd(t *testing.T) {
	reg := newTestRegistry(t, Options{})

	tests := []struct {
		name string
		args registry.Arguments
		want string
	}{
		{"integers", registry.Arguments{"a": 2.0, "b": 3.0}, "Result: 5"},
		{"fractions", registry.Arguments{"a": 1.5, "b": 2.25}, "Result: 3.75"},
		{"numeric strings", registry.Arguments{"a": "4", "b": 1}, "Result: 5"},
		{"missing operand", registry.Arguments{"a": 7.0}, "Result: 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, _ := invoke(t, reg, "add", tt.args)
			testboil.FailTestIfDiff(t, text, tt.want)
		})
	}

	t.Run("non-numeric operand", func(t *testing.T) {
		text, isErr := invoke(t, reg, "add", registry.Arguments{"a": "two", "b": 1})
		testboil.FailTestIfDiff(t, isErr, true)
		testboil.AssertStringContains(t, text, "a must be a number")
	})
}

func TestGetTime(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	reg := newTestRegistry(t, Options{Now: func() time.Time { return fixed }})

	tests := []struct {
		zone string
		want string
	}{
		{"UTC", "Current time in UTC: 2024-03-01 12:30:00"},
		{"EST", "Current time in EST: 2024-03-01 07:30:00"},
		{"jst", "Current time in jst: 2024-03-01 21:30:00"},
		{"Mars/Olympus", "Current time in Mars/Olympus: 2024-03-01 12:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			text, _ := invoke(t, reg, "get_time", registry.Arguments{"timezone": tt.zone})
			testboil.FailTestIfDiff(t, text, tt.want)
		})
	}

	t.Run("defaults to UTC", func(t *testing.T) {
		text, _ := invoke(t, reg, "get_time", registry.Arguments{})
		testboil.FailTestIfDiff(t, text, "Current time in UTC: 2024-03-01 12:30:00")
	})
}

func TestCheckWeather(t *testing.T) {
	rng := &fixedRand{12, 1}
	reg := newTestRegistry(t, Options{Rand: rng})

	text, isErr := invoke(t, reg, "check_weather", registry.Arguments{"city": "Oslo"})
	testboil.FailTestIfDiff(t, text, "Weather in Oslo: 22°C, Cloudy")
	testboil.FailTestIfDiff(t, isErr, false)

	rng = &fixedRand{0, 3}
	reg = newTestRegistry(t, Options{Rand: rng})
	text, _ = invoke(t, reg, "check_weather", registry.Arguments{})
	testboil.FailTestIfDiff(t, text, "Weather in Unknown: 10°C, Partly Cloudy")
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"7 % 3", 1},
		{"2 ** 3 ** 2", 512},
		{"-2 ** 2", -4},
		{"5--3", 8},
		{"1.5 * 2", 3},
		{"\t42 ", 42},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Evaluate(tt.expr)
			if err != nil {
				t.Fatalf("Evaluate(%q) failed: %v", tt.expr, err)
			}
			testboil.FailTestIfDiff(t, got, tt.want)
		})
	}

	failures := []struct {
		expr string
		want string
	}{
		{"", "empty expression"},
		{"os.exit(1)", "unsupported character"},
		{"2 +", "invalid syntax"},
		{"1 / 0", "not a finite number"},
		{"1 .. 2", "unsupported operator"},
		{"(1)..(2)", "unsupported operator"},
	}

	for _, tt := range failures {
		t.Run("rejects "+tt.expr, func(t *testing.T) {
			_, err := Evaluate(tt.expr)
			if err == nil {
				t.Fatalf("Evaluate(%q) succeeded, want error", tt.expr)
			}
			testboil.AssertStringContains(t, err.Error(), tt.want)
		})
	}
}

func TestCalculate(t *testing.T) {
	reg := newTestRegistry(t, Options{})

	text, isErr := invoke(t, reg, "calculate", registry.Arguments{"expression": "2 + 3 * 4"})
	testboil.FailTestIfDiff(t, text, "2 + 3 * 4 = 14")
	testboil.FailTestIfDiff(t, isErr, false)

	text, isErr = invoke(t, reg, "calculate", registry.Arguments{"expression": "1 / 0"})
	testboil.FailTestIfDiff(t, isErr, true)
	if !strings.HasPrefix(text, "Error evaluating expression: ") {
		t.Errorf("Unexpected error text: %q", text)
	}
}

func TestFetchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			if ua := r.Header.Get("User-Agent"); ua != userAgent {
				t.Errorf("User-Agent = %q", ua)
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title>T</title><style>p{color:red}</style>` +
				`<script>var x = 1;</script></head><body><p>Hello</p><p>World</p></body></html>`))
		case "/long":
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(strings.Repeat("a", 600)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	reg := newTestRegistry(t, Options{
		HTTPClient:     srv.Client(),
		AllowedDomains: []string{"127.0.0.1"},
	})

	t.Run("extracts visible html text", func(t *testing.T) {
		text, isErr := invoke(t, reg, "fetch_url", registry.Arguments{"url": srv.URL + "/page"})
		testboil.FailTestIfDiff(t, isErr, false)
		testboil.FailTestIfDiff(t, text, "Status: 200\nContent (first 500 chars):\nT\nHello\nWorld")
	})

	t.Run("truncates plain text", func(t *testing.T) {
		text, _ := invoke(t, reg, "fetch_url", registry.Arguments{"url": srv.URL + "/long"})
		testboil.FailTestIfDiff(t, text, "Status: 200\nContent (first 500 chars):\n"+strings.Repeat("a", 500))
	})

	t.Run("reports non-2xx status", func(t *testing.T) {
		text, isErr := invoke(t, reg, "fetch_url", registry.Arguments{"url": srv.URL + "/missing"})
		testboil.FailTestIfDiff(t, isErr, false)
		testboil.AssertStringContains(t, text, "Status: 404")
	})

	t.Run("rejects hosts outside the allow list", func(t *testing.T) {
		text, isErr := invoke(t, reg, "fetch_url", registry.Arguments{"url": "https://example.com/x"})
		testboil.FailTestIfDiff(t, isErr, true)
		testboil.FailTestIfDiff(t, text, "Error: URL domain 'example.com' not in safe list for testing")
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		_, isErr := invoke(t, reg, "fetch_url", registry.Arguments{"url": "file:///etc/passwd"})
		testboil.FailTestIfDiff(t, isErr, true)
	})
}

func TestFetchURLTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	target := srv.URL
	srv.Close()

	reg := newTestRegistry(t, Options{AllowedDomains: []string{"127.0.0.1"}})

	text, isErr := invoke(t, reg, "fetch_url", registry.Arguments{"url": target})
	testboil.FailTestIfDiff(t, isErr, true)
	if !strings.HasPrefix(text, "Error fetching URL: ") {
		t.Errorf("Unexpected error text: %q", text)
	}
}

func TestDomainAllowed(t *testing.T) {
	allowed := []string{"httpbin.org", "api.github.com"}

	tests := []struct {
		host string
		want bool
	}{
		{"httpbin.org", true},
		{"HTTPBIN.org", true},
		{"eu.httpbin.org", true},
		{"api.github.com", true},
		{"github.com", false},
		{"evilhttpbin.org", false},
		{"httpbin.org.evil.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			testboil.FailTestIfDiff(t, domainAllowed(tt.host, allowed), tt.want)
		})
	}
}
