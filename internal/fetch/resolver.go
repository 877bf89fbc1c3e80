package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	apperrors "gpworkforce/internal/errors"
)

// PublicationResolver turns a publication page URL into a direct download
// URL for the practice-level workforce file. The core transform never
// depends on how the link is found; callers that already know the file
// location can supply a StaticResolver instead.
type PublicationResolver interface {
	ResolveDownloadURL(ctx context.Context, publicationURL string) (string, error)
}

// NHSPublicationResolver scrapes an NHS Digital publication page for the
// practice-level ZIP link.
type NHSPublicationResolver struct {
	client *Client
	logger *slog.Logger
}

// NewNHSPublicationResolver creates a resolver backed by the given client.
func NewNHSPublicationResolver(client *Client, logger *slog.Logger) *NHSPublicationResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &NHSPublicationResolver{client: client, logger: logger}
}

// ResolveDownloadURL fetches the publication page and returns the first
// anchor whose text mentions "practice" and whose href ends in ".zip".
// Falls back to any files.digital.nhs.uk link with "practice" in the URL.
func (r *NHSPublicationResolver) ResolveDownloadURL(ctx context.Context, publicationURL string) (string, error) {
	r.logger.InfoContext(ctx, "fetching publication page",
		slog.String("url", publicationURL))

	body, err := r.client.Get(ctx, publicationURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := html.Parse(body)
	if err != nil {
		return "", apperrors.NewParsingError("failed to parse publication page", err)
	}

	links := collectAnchors(doc)

	for _, a := range links {
		if strings.Contains(strings.ToLower(a.text), "practice") &&
			strings.HasSuffix(strings.ToLower(a.href), ".zip") {
			return resolveHref(publicationURL, a.href)
		}
	}

	for _, a := range links {
		lower := strings.ToLower(a.href)
		if strings.Contains(lower, "files.digital.nhs.uk") && strings.Contains(lower, "practice") {
			return a.href, nil
		}
	}

	return "", apperrors.NewNotFoundError(
		fmt.Sprintf("practice-level download link on %s", publicationURL))
}

// StaticResolver returns a pre-resolved URL; used when the download link is
// already known or the page-scraping step is being bypassed.
type StaticResolver struct {
	URL string
}

// ResolveDownloadURL returns the configured URL unchanged.
func (r StaticResolver) ResolveDownloadURL(ctx context.Context, publicationURL string) (string, error) {
	if r.URL == "" {
		return "", apperrors.NewConfigError("static resolver has no URL configured", nil)
	}
	return r.URL, nil
}

type anchor struct {
	href string
	text string
}

// collectAnchors walks the document tree gathering every <a href> with its
// flattened link text.
func collectAnchors(doc *html.Node) []anchor {
	var anchors []anchor

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && attr.Val != "" {
					anchors = append(anchors, anchor{
						href: attr.Val,
						text: strings.TrimSpace(nodeText(n)),
					})
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return anchors
}

// nodeText returns the concatenated text content of a node subtree.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}

// resolveHref resolves a possibly relative href against the page URL.
func resolveHref(pageURL, href string) (string, error) {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href, nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", apperrors.NewParsingError("invalid publication URL", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", apperrors.NewParsingError(fmt.Sprintf("invalid link href %q", href), err)
	}

	return base.ResolveReference(ref).String(), nil
}
