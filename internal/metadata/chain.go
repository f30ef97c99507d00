package metadata

import (
	"context"
	"log"
)

// Provider is a named Lookup.
type Provider struct {
	Name   string
	Lookup Lookup
}

// Chain asks each provider in turn and returns the first result. Provider
// errors are logged and skipped, so Chain itself never fails.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) LookupByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	for _, p := range c.providers {
		if ctx.Err() != nil {
			return nil, nil
		}

		md, err := p.Lookup.LookupByISBN(ctx, isbn)
		if err != nil {
			log.Printf("ISBN lookup via %s failed for %q: %v", p.Name, isbn, err)
			continue
		}
		if md != nil {
			return md, nil
		}
	}
	return nil, nil
}
