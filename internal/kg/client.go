package kg

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"concierge/internal/dialogue"
	"concierge/internal/llm"
	"concierge/internal/speech"
)

// #region limits

const (
	DefaultLimit    = 10
	MaxLimit        = 25
	DisplayLimitCap = 20
)

// #endregion limits

// #region client

// SPARQLGenerator produces one SPARQL query from a prompt exchange.
type SPARQLGenerator interface {
	CompleteSPARQL(ctx context.Context, messages []llm.Message) (string, error)
}

// Client answers venue questions against a SPARQL endpoint, generating
// queries with an LLM and falling back to a deterministic template.
type Client struct {
	Endpoint string
	Gen      SPARQLGenerator
	httpc    *http.Client
}

// NewClient builds a knowledge-graph client.
func NewClient(endpoint string, gen SPARQLGenerator, timeout time.Duration) *Client {
	return &Client{
		Endpoint: endpoint,
		Gen:      gen,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// #endregion client

// #region sparql-exec

// sparqlResponse is the standard SPARQL JSON results envelope.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// ExecQuery runs a query, flattens the bindings to var→value maps, and logs
// the result (and cache update) on the session state.
func (c *Client) ExecQuery(ctx context.Context, sparql string, st *dialogue.State) ([]map[string]string, error) {
	t0 := time.Now()
	rows, err := c.execQuery(ctx, sparql)
	st.LogKGResult(sparql, rows, time.Since(t0).Milliseconds(), err)
	if err != nil {
		log.Printf("[KG] execution error: %v", err)
	}
	return rows, err
}

func (c *Client) execQuery(ctx context.Context, sparql string) ([]map[string]string, error) {
	q := url.Values{}
	q.Set("query", sparql)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build sparql request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sparql request: endpoint status %d", resp.StatusCode)
	}

	var sr sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode sparql response: %w", err)
	}

	rows := make([]map[string]string, 0, len(sr.Results.Bindings))
	for _, b := range sr.Results.Bindings {
		row := make(map[string]string, len(b))
		for k, cell := range b {
			row[k] = cell.Value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// #endregion sparql-exec

// #region price-policy

// PricePolicy is the persona-derived ranking and limit strategy.
type PricePolicy struct {
	Band         string
	Order        string
	Limit        int
	UserSetLimit bool
}

// PersonaPricePolicy derives sorting and limits from the user's price band
// and the turn's explicit sort/limit slots. Explicit sort always wins.
func PersonaPricePolicy(profile dialogue.UserProfile, slots speech.Slots) PricePolicy {
	band := profile.PriceBand
	if band == "" {
		band = "mid"
	}

	limit := DefaultLimit
	userSet := false
	if slots.Limit > 0 {
		limit = slots.Limit
		if limit > MaxLimit {
			limit = MaxLimit
		}
		userSet = true
	}

	var order string
	switch slots.Sort {
	case "cheap":
		order = "ORDER BY ASC(?price) DESC(?rating)"
	case "best":
		order = "ORDER BY DESC(?rating) ASC(?price)"
	default:
		switch band {
		case "budget":
			order = "ORDER BY ASC(?price) DESC(?rating)"
		case "premium":
			order = "ORDER BY DESC(?rating) DESC(?price)"
		default:
			order = "ORDER BY DESC(?rating) ASC(?price)"
		}
	}

	return PricePolicy{Band: band, Order: order, Limit: limit, UserSetLimit: userSet}
}

// #endregion price-policy
