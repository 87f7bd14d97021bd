package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_EmbedParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"first", "second"}, req.Input)

		// Out-of-order data entries must land at their declared index.
		resp := embedResponse{Data: []embedData{
			{Index: 1, Embedding: []float32{0, 1}},
			{Index: 0, Embedding: []float32{1, 0}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL, Dimension: 2})
	require.NoError(t, err)

	vecs, err := client.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1}, vecs[1])
}

func TestClient_EmbedSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(embedResponse{
			Error: &embedError{Message: "rate limited", Type: "rate_limit"},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestClient_EmbedEmptyInputIsNoop(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "http://unused.invalid"})
	require.NoError(t, err)

	vecs, err := client.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestMockClient_Deterministic(t *testing.T) {
	mock := NewMockClient(8)

	a, err := mock.EmbedSingle(context.Background(), "ball valve")
	require.NoError(t, err)
	b, err := mock.EmbedSingle(context.Background(), "ball valve")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 8)
}
