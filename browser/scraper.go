package browser

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ScrapeText collects the rendered text of every element matching selector,
// drops empty texts and joins the rest with newlines in document order.
func ScrapeText(ctx context.Context, s Session, selector string) (string, error) {
	elements, err := s.FindElements(ctx, selector)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrScrape, err)
	}

	texts := make([]string, len(elements))
	g, gctx := errgroup.WithContext(ctx)
	for i, el := range elements {
		i, el := i, el
		g.Go(func() error {
			text, err := el.Text(gctx)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrScrape, selector, err)
	}

	nonEmpty := texts[:0]
	for _, text := range texts {
		if text != "" {
			nonEmpty = append(nonEmpty, text)
		}
	}
	return strings.Join(nonEmpty, "\n"), nil
}

// ScrapeLinks returns the href of every element matching selector. Elements
// without an href keep their position as an empty string.
func ScrapeLinks(ctx context.Context, s Session, selector string) ([]string, error) {
	elements, err := s.FindElements(ctx, selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScrape, err)
	}

	links := make([]string, len(elements))
	g, gctx := errgroup.WithContext(ctx)
	for i, el := range elements {
		i, el := i, el
		g.Go(func() error {
			href, _, err := el.Attribute(gctx, "href")
			if err != nil {
				return err
			}
			links[i] = href
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrScrape, selector, err)
	}
	return links, nil
}
