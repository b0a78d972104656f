package chatapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_ValidatesEndpoint(t *testing.T) {
	_, err := New("")
	require.Error(t, err)

	_, err = New("ftp://shop.example/api/chat/")
	require.Error(t, err)

	c, err := New(" https://shop.example/api/chat/ ")
	require.NoError(t, err)
	require.Equal(t, "https://shop.example/api/chat/", c.Endpoint())
}

func TestAsk_PostsQuestion(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"message": "I found 1 product matching your query about 'red shoes'.",
			"products": [{"id": 9, "title": "Red Shoe", "price": "999.00", "rating": 4.1, "similarity_score": 0.91}],
			"total_found": 1,
			"query": "red shoes"
		}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	reply, err := c.Ask(context.Background(), "red shoes")
	require.NoError(t, err)
	require.Equal(t, "red shoes", got.Question)
	require.Equal(t, 1, reply.TotalFound)
	require.Equal(t, "red shoes", reply.Query)
	require.Len(t, reply.Products, 1)
	require.Equal(t, 9, reply.Products[0].ID)
	require.Equal(t, "Red Shoe", reply.Products[0].Title)
}

func TestAsk_EmptyProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"nothing found","products":[],"total_found":0}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	reply, err := c.Ask(context.Background(), "unicorn saddles")
	require.NoError(t, err)
	require.Equal(t, "nothing found", reply.Message)
	require.Empty(t, reply.Products)
}

func TestAsk_NumericSizesDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"Shoes","products":[{"id":3,"title":"Runner","price":2499,"available_sizes":[7,8,9]}],"total_found":1}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	reply, err := c.Ask(context.Background(), "running shoes")
	require.NoError(t, err)
	require.Len(t, reply.Products, 1)
	require.Equal(t, "7, 8, 9", reply.Products[0].Sizes())
}

func TestAsk_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Chat service error: index unavailable"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Ask(context.Background(), "anything")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	require.Contains(t, statusErr.Body, "index unavailable")
}

func TestAsk_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Ask(context.Background(), "anything")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decoding response")
}

func TestAsk_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(url)
	require.NoError(t, err)

	_, err = c.Ask(context.Background(), "anything")
	require.Error(t, err)
	require.Contains(t, err.Error(), "sending request")
}

func TestAsk_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Ask(context.Background(), "slow")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
}
