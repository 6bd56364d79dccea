// Command typechart compares the built-in type chart with the one served by
// PokeAPI and prints every difference. It exits with status 1 when the two
// disagree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
	"github.com/ericogr/pokeduel/internal/pokeapi"
)

func main() {
	baseURL := flag.String("base-url", constants.PokeAPIBaseURL, "PokeAPI base URL")
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := pokeapi.New(*baseURL, 10*time.Second)
	got, err := pokeapi.FetchDamageFrom(ctx, client)
	if err != nil {
		logging.Fatal("failed to fetch type chart", err, logging.Fields{constants.LogFieldSource: *baseURL})
	}
	diffs := pokeapi.DiffDamageFrom(game.DefaultDamageFrom(), got)
	for _, d := range diffs {
		fmt.Println(d)
	}
	if len(diffs) > 0 {
		logging.Warn("type chart differs from PokeAPI", nil, logging.Fields{constants.LogFieldCount: len(diffs)})
		os.Exit(1)
	}
	logging.Info("type chart matches PokeAPI", nil)
}
