package deckclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/dedupe"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/keys"
)

// Client reads decks from the remote users service, acting with the
// caller's own session token.
type Client struct {
	baseURL string
	base    *http.Client
	timeout time.Duration
}

// New returns a client for baseURL. timeout bounds each request.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type deckResponse struct {
	ID       uint `json:"id"`
	AuthorID uint `json:"authorId"`
	Pokemons []struct {
		PokeID int `json:"pokeId"`
	} `json:"pokemons"`
}

// GetDeck fetches deck deckID with credential forwarded as a bearer token.
// Concurrent lookups of the same deck and credential share one request; a
// caller that gives up does not cancel it for the others.
func (c *Client) GetDeck(ctx context.Context, deckID uint, credential string) (*game.Deck, error) {
	ch := dedupe.DeckGroup.DoChan(keys.DeckKey(deckID, credential), func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetch(fctx, deckID, credential)
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		// each caller gets its own copy
		d := *r.Val.(*game.Deck)
		d.Cards = append([]game.DeckCard(nil), d.Cards...)
		return &d, nil
	case <-ctx.Done():
		return nil, game.Unavailable("deck lookup timed out", ctx.Err())
	}
}

func (c *Client) fetch(ctx context.Context, deckID uint, credential string) (*game.Deck, error) {
	hctx := context.WithValue(ctx, oauth2.HTTPClient, c.base)
	hc := oauth2.NewClient(hctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential, TokenType: "Bearer"}))
	// NewClient keeps only the transport of the base client
	hc.Timeout = c.base.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+fmt.Sprintf(constants.DeckSourcePath, deckID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", constants.ContentTypeJSON)

	resp, err := hc.Do(req)
	if err != nil {
		return nil, game.Unavailable("deck service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, game.ErrDeckNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, game.ErrDeckNotOwned
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, game.Unavailable("deck service error", fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}

	var out deckResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, game.Unavailable("deck service returned malformed deck", err)
	}
	ids := make([]int, len(out.Pokemons))
	for i, p := range out.Pokemons {
		ids[i] = p.PokeID
	}
	d := &game.Deck{AuthorID: out.AuthorID}
	d.ID = out.ID
	if d.ID == 0 {
		d.ID = deckID
	}
	d.SetCards(ids)
	return d, nil
}
