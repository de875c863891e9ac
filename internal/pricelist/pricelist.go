// Package pricelist fetches and decodes partner price-list documents.
package pricelist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ikkim/orders-backend/pkg/logger"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidURL = errors.New("invalid price list url")
	ErrFetch      = errors.New("failed to fetch price list")
	ErrParse      = errors.New("failed to parse price list")
)

// Document is the price-list format:
//
//	shop: Name
//	categories: [{id: 1, name: Phones}]
//	goods: [{id: 10, category: 1, name: ..., model: ..., price: 100, price_rrc: 120, quantity: 3, parameters: {Color: red}}]
type Document struct {
	Shop       string     `yaml:"shop"`
	Categories []Category `yaml:"categories"`
	Goods      []Good     `yaml:"goods"`
}

type Category struct {
	ID   uint   `yaml:"id"`
	Name string `yaml:"name"`
}

type Good struct {
	ID         uint              `yaml:"id"`
	Category   uint              `yaml:"category"`
	Name       string            `yaml:"name"`
	Model      string            `yaml:"model"`
	Price      int               `yaml:"price"`
	PriceRRC   int               `yaml:"price_rrc"`
	Quantity   int               `yaml:"quantity"`
	Parameters map[string]string `yaml:"parameters"`
}

// ParameterCount is the number of product parameters the document produces.
func (d *Document) ParameterCount() int {
	n := 0
	for _, g := range d.Goods {
		n += len(g.Parameters)
	}
	return n
}

// Validate checks the references inside the document.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Shop) == "" {
		return fmt.Errorf("%w: shop name is empty", ErrParse)
	}
	categories := make(map[uint]struct{}, len(d.Categories))
	for _, c := range d.Categories {
		if c.ID == 0 || strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: category needs id and name", ErrParse)
		}
		categories[c.ID] = struct{}{}
	}
	seen := make(map[uint]struct{}, len(d.Goods))
	for _, g := range d.Goods {
		if _, ok := categories[g.Category]; !ok {
			return fmt.Errorf("%w: good %d references unknown category %d", ErrParse, g.ID, g.Category)
		}
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("%w: good %d has no name", ErrParse, g.ID)
		}
		if g.Price < 0 || g.PriceRRC < 0 || g.Quantity < 0 {
			return fmt.Errorf("%w: good %d has a negative price or quantity", ErrParse, g.ID)
		}
		if _, dup := seen[g.ID]; dup {
			return fmt.Errorf("%w: good %d listed twice", ErrParse, g.ID)
		}
		seen[g.ID] = struct{}{}
	}
	return nil
}

// Parse decodes a YAML document into typed structs and validates it. Unknown
// keys are ignored.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
}

// Fetcher downloads price lists over HTTP.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch validates rawURL, downloads it and parses the body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetching price list", map[string]interface{}{"url": u.String()})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/yaml, text/yaml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: document larger than %d bytes", ErrFetch, f.maxBytes)
	}

	return Parse(body)
}
