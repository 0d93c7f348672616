package tools

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/conneroisu/toolpipe/pkg/toolpipe/messages"
	"github.com/conneroisu/toolpipe/pkg/toolpipe/registry"
)

const userAgent = "toolpipe/1.0"

// FetchURL fetches a page from an allow-listed host and returns its status
// and the start of its content. HTML is reduced to its visible text.
func FetchURL(client Doer, allowed []string, timeout time.Duration) registry.Tool {
	return registry.NewTool(
		mcp.NewTool("fetch_url",
			mcp.WithDescription("Fetch content from a URL"),
			mcp.WithString("url",
				mcp.Required(),
				mcp.Description("The URL to fetch"),
			),
		),
		registry.HandlerFunc(func(ctx context.Context, args registry.Arguments) (messages.ToolResult, error) {
			raw, err := args.String("url", "")
			if err != nil {
				return messages.ToolResult{}, err
			}

			target, err := url.Parse(raw)
			if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
				return messages.NewErrorResult(fmt.Sprintf("Error: invalid URL '%s'", raw)), nil
			}
			if !domainAllowed(target.Hostname(), allowed) {
				return messages.NewErrorResult(
					fmt.Sprintf("Error: URL domain '%s' not in safe list for testing", target.Host),
				), nil
			}

			status, content, err := fetch(ctx, client, target.String(), timeout)
			if err != nil {
				return messages.NewErrorResult("Error fetching URL: " + err.Error()), nil
			}

			return messages.NewTextResult(fmt.Sprintf(
				"Status: %d\nContent (first %d chars):\n%s",
				status,
				defaultPreviewChars,
				truncateRunes(content, defaultPreviewChars),
			)), nil
		}),
	)
}

// domainAllowed matches host against the list exactly or as a subdomain.
func domainAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	for _, domain := range allowed {
		domain = strings.ToLower(domain)
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}

	return false
}

func fetch(ctx context.Context, client Doer, target string, timeout time.Duration) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	body, err := charset.NewReader(io.LimitReader(resp.Body, maxFetchBytes), contentType)
	if err != nil {
		return 0, "", fmt.Errorf("decode body: %w", err)
	}

	if isHTML(contentType) {
		text, err := visibleText(body)
		if err != nil {
			return 0, "", err
		}

		return resp.StatusCode, text, nil
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return 0, "", fmt.Errorf("read body: %w", err)
	}

	return resp.StatusCode, string(data), nil
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)

	return err == nil && (mediaType == "text/html" || mediaType == "application/xhtml+xml")
}

// visibleText collects the text nodes of an HTML document, skipping script
// and style content.
func visibleText(r io.Reader) (string, error) {
	var text strings.Builder
	skip := 0

	tokenizer := html.NewTokenizer(r)
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if tokenizer.Err() == io.EOF {
				return strings.TrimSpace(text.String()), nil
			}

			return "", fmt.Errorf("tokenizer error: %w", tokenizer.Err())
		case html.StartTagToken, html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skip++
				} else if skip > 0 {
					skip--
				}
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			trimmed := strings.TrimSpace(string(tokenizer.Text()))
			if trimmed != "" {
				text.WriteString(trimmed)
				text.WriteByte('\n')
			}
		}
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
