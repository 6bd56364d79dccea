package pokeapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/pokemon/6/", func(w http.ResponseWriter, r *http.Request) {
		// slots deliberately out of order
		w.Write([]byte(`{"id":6,"name":"charizard","types":[
			{"slot":2,"type":{"name":"flying","url":""}},
			{"slot":1,"type":{"name":"fire","url":""}}]}`))
	})
	mux.HandleFunc("/pokemon/500/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "oops", http.StatusBadGateway)
	})
	mux.HandleFunc("/type/fire/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"fire","damage_relations":{
			"double_damage_from":[{"name":"water"},{"name":"ground"},{"name":"rock"}],
			"half_damage_from":[{"name":"fire"},{"name":"grass"}],
			"no_damage_from":[],
			"double_damage_to":[{"name":"grass"}],
			"half_damage_to":[{"name":"water"}],
			"no_damage_to":[]}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPokemonTypes_OrderedBySlot(t *testing.T) {
	c := New(newServer(t).URL, time.Second)
	got, err := c.PokemonTypes(context.Background(), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "fire" || got[1] != "flying" {
		t.Fatalf("unexpected types %v", got)
	}
}

func TestPokemonTypes_NotFound(t *testing.T) {
	c := New(newServer(t).URL, time.Second)
	if _, err := c.PokemonTypes(context.Background(), 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPokemonTypes_StatusError(t *testing.T) {
	c := New(newServer(t).URL, time.Second)
	_, err := c.PokemonTypes(context.Background(), 500)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestTypeRelations(t *testing.T) {
	c := New(newServer(t).URL+"/", time.Second)
	rel, err := c.TypeRelations(context.Background(), "Fire")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rel.DoubleDamageFrom) != 3 || rel.DoubleDamageFrom[0] != "water" {
		t.Fatalf("unexpected relations %+v", rel)
	}
	if len(rel.HalfDamageTo) != 1 || rel.HalfDamageTo[0] != "water" {
		t.Fatalf("unexpected relations %+v", rel)
	}
}
