package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ericogr/pokeduel/internal/constants"
)

// ErrNotFound is returned when PokeAPI answers 404 for a creature or type.
var ErrNotFound = errors.New("pokeapi: not found")

// StatusError reports an unexpected non-2xx answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pokeapi: unexpected status %d: %s", e.Code, e.Body)
}

// Client is a read-only PokeAPI client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL; an empty baseURL uses the public API.
// timeout bounds each HTTP exchange.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = constants.PokeAPIBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type namedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type pokemonResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Types []struct {
		Slot int           `json:"slot"`
		Type namedResource `json:"type"`
	} `json:"types"`
}

// TypeRelations mirrors the damage_relations object of /type/{name}/.
type TypeRelations struct {
	DoubleDamageFrom []string
	HalfDamageFrom   []string
	NoDamageFrom     []string
	DoubleDamageTo   []string
	HalfDamageTo     []string
	NoDamageTo       []string
}

type typeResponse struct {
	Name            string `json:"name"`
	DamageRelations struct {
		DoubleDamageFrom []namedResource `json:"double_damage_from"`
		HalfDamageFrom   []namedResource `json:"half_damage_from"`
		NoDamageFrom     []namedResource `json:"no_damage_from"`
		DoubleDamageTo   []namedResource `json:"double_damage_to"`
		HalfDamageTo     []namedResource `json:"half_damage_to"`
		NoDamageTo       []namedResource `json:"no_damage_to"`
	} `json:"damage_relations"`
}

// PokemonTypes returns the type names of creature id, ordered by slot.
func (c *Client) PokemonTypes(ctx context.Context, id int) ([]string, error) {
	var out pokemonResponse
	if err := c.get(ctx, fmt.Sprintf(constants.PokeAPIPokemonPath, id), &out); err != nil {
		return nil, err
	}
	sort.SliceStable(out.Types, func(i, j int) bool { return out.Types[i].Slot < out.Types[j].Slot })
	names := make([]string, 0, len(out.Types))
	for _, t := range out.Types {
		names = append(names, t.Type.Name)
	}
	return names, nil
}

// TypeRelations returns the damage relations of the named type.
func (c *Client) TypeRelations(ctx context.Context, name string) (*TypeRelations, error) {
	var out typeResponse
	path := fmt.Sprintf(constants.PokeAPITypePath, strings.ToLower(strings.TrimSpace(name)))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	dr := out.DamageRelations
	return &TypeRelations{
		DoubleDamageFrom: names(dr.DoubleDamageFrom),
		HalfDamageFrom:   names(dr.HalfDamageFrom),
		NoDamageFrom:     names(dr.NoDamageFrom),
		DoubleDamageTo:   names(dr.DoubleDamageTo),
		HalfDamageTo:     names(dr.HalfDamageTo),
		NoDamageTo:       names(dr.NoDamageTo),
	}, nil
}

func names(rs []namedResource) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", constants.ContentTypeJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode PokeAPI response: %w", err)
	}
	return nil
}
