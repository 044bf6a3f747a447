package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sage-x-project/relay/pkg/realtime/proto"
)

// Relation names of the RFC-5988 Link header the paginated endpoints
// emit.
const (
	RelFirst    = "first"
	RelNext     = "next"
	RelPrevious = "previous"
	RelCurrent  = "current"
)

// linkPattern matches one `<url?query>; rel="name"` element.
var linkPattern = regexp.MustCompile(`\s*<([^>]+)>\s*;\s*rel="([^"]+)"`)

// Relation is a parsed Link target: a path and the full query map,
// every key/value pair preserved.
type Relation struct {
	Path  string
	Query url.Values
}

// ParseLinks parses the Link header values of a paginated response into
// a relation-name → request-descriptor map.
func ParseLinks(headers []string) map[string]Relation {
	links := make(map[string]Relation)
	for _, header := range headers {
		for _, element := range strings.Split(header, ",") {
			m := linkPattern.FindStringSubmatch(element)
			if m == nil {
				continue
			}
			target, rel := m[1], m[2]
			path, rawQuery, _ := strings.Cut(target, "?")
			query, err := url.ParseQuery(rawQuery)
			if err != nil {
				continue
			}
			links[rel] = Relation{Path: path, Query: query}
		}
	}
	return links
}

// PaginatedResult is one page of a paginated response: the current
// page's items plus the parsed relations for fetching the named
// neighbouring pages.
type PaginatedResult struct {
	client *Client
	path   string
	items  []json.RawMessage
	links  map[string]Relation
}

// Len reports the number of items on this page.
func (p *PaginatedResult) Len() int { return len(p.items) }

// Items returns the raw page items.
func (p *PaginatedResult) Items() []json.RawMessage { return p.items }

// Messages decodes the page items as Messages, running each through
// the codec pipeline with opts. A message that fails to decode is
// degraded, not dropped: it is returned with its partial decode state
// and the first such error is reported alongside.
func (p *PaginatedResult) Messages(opts proto.ChannelOptions) ([]proto.Message, error) {
	var firstErr error
	out := make([]proto.Message, 0, len(p.items))
	for _, raw := range p.items {
		var m proto.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("rest: malformed message item: %w", err)
			}
			continue
		}
		if err := p.client.pipeline.DecodeMessage(&m, opts); err != nil && firstErr == nil {
			firstErr = err
		}
		out = append(out, m)
	}
	return out, firstErr
}

// Presence decodes the page items as PresenceMessages.
func (p *PaginatedResult) Presence(opts proto.ChannelOptions) ([]proto.PresenceMessage, error) {
	var firstErr error
	out := make([]proto.PresenceMessage, 0, len(p.items))
	for _, raw := range p.items {
		var m proto.PresenceMessage
		if err := json.Unmarshal(raw, &m); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("rest: malformed presence item: %w", err)
			}
			continue
		}
		if err := p.client.pipeline.DecodePresence(&m, opts); err != nil && firstErr == nil {
			firstErr = err
		}
		out = append(out, m)
	}
	return out, firstErr
}

// Relation returns the parsed request descriptor for rel, if the page
// carried one.
func (p *PaginatedResult) Relation(rel string) (Relation, bool) {
	r, ok := p.links[rel]
	return r, ok
}

// HasNext reports whether the page carries a next relation.
func (p *PaginatedResult) HasNext() bool {
	_, ok := p.links[RelNext]
	return ok
}

// First fetches the page named by the first relation.
func (p *PaginatedResult) First(ctx context.Context) (*PaginatedResult, error) {
	return p.follow(ctx, RelFirst)
}

// Next fetches the page named by the next relation.
func (p *PaginatedResult) Next(ctx context.Context) (*PaginatedResult, error) {
	return p.follow(ctx, RelNext)
}

// Previous fetches the page named by the previous relation.
func (p *PaginatedResult) Previous(ctx context.Context) (*PaginatedResult, error) {
	return p.follow(ctx, RelPrevious)
}

// Current re-fetches the current page.
func (p *PaginatedResult) Current(ctx context.Context) (*PaginatedResult, error) {
	return p.follow(ctx, RelCurrent)
}

func (p *PaginatedResult) follow(ctx context.Context, rel string) (*PaginatedResult, error) {
	link, ok := p.links[rel]
	if !ok {
		return nil, fmt.Errorf("rest: page has no %q relation", rel)
	}
	path := link.Path
	if !strings.HasPrefix(path, "/") {
		// Relative targets like "./history" resolve against the page's
		// own path.
		base := p.path[:strings.LastIndex(p.path, "/")+1]
		path = base + strings.TrimPrefix(path, "./")
	}
	return p.client.getPage(ctx, path, link.Query)
}
