package main

import (
	"net/http"
	"os"
	"time"
)

// Probes the local API for container health checks. POKEDUEL_HEALTH_URL
// overrides the default address.
func main() {
	url := os.Getenv("POKEDUEL_HEALTH_URL")
	if url == "" {
		url = "http://127.0.0.1:8080/api/health"
	}
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
	os.Exit(0)
}
