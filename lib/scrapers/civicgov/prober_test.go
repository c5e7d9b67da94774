package civicgov

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"civicsearch-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestDiscoverFindsFirstAcceptedPath(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:civicgov")
	defer cleanup()

	served := "/api/search/search"
	var probed []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed = append(probed, r.URL.Path)
		if r.URL.Path != served {
			w.WriteHeader(404)
			w.Write([]byte(`<!DOCTYPE html><html><head><title>Not Found</title></head></html>`))
			return
		}
		// exists but dislikes the minimal probe body
		w.WriteHeader(400)
		w.Write([]byte(`{"Message": "invalid search criteria"}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	endpoint, err := client.Discover(context.Background(), "", CategoryPermits)
	require.NoError(t, err)
	require.Equal(t, served, endpoint)

	// candidates before the accepted one were each probed exactly once
	require.Equal(t, []string{
		"/api/energov/search/search",
		"/energov/api/search/search",
		"/api/search/search",
	}, probed)
}

func TestDiscoverAppliesApiPrefix(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:civicgov")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/prefix/api/energov/search/search" {
			w.Write([]byte(resultPage()))
			return
		}
		w.WriteHeader(404)
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	endpoint, err := client.Discover(context.Background(), "/prefix/", CategoryPermits)
	require.NoError(t, err)
	require.Equal(t, "/prefix/api/energov/search/search", endpoint)
}

func TestDiscoverRejectsHtmlOnlyDeployments(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:civicgov")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a catch-all html page with a 200 status must not count as an
		// accepted search endpoint
		w.Write([]byte(`<html><head><title>Citizen Portal</title></head><body></body></html>`))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	_, err = client.Discover(context.Background(), "", CategoryPermits)
	require.ErrorIs(t, err, ErrNoEndpoint)
}

func TestProbeRejects404(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:civicgov")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
		w.Write([]byte(`{"Message": "no such route"}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	ok, err := client.Probe(context.Background(), "/api/search/search", CategoryPermits)
	require.NoError(t, err)
	require.False(t, ok)
}
