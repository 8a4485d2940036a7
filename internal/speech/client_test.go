package speech

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesize_Success(t *testing.T) {
	var got request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, speechPath, r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake"))
	}))
	defer server.Close()

	client := NewClient("sk-test")
	client.BaseURL = server.URL + "/"

	audio, err := client.Synthesize(context.Background(), "Round 1: the doors open.", "")
	require.NoError(t, err)
	defer audio.Close()

	data, err := io.ReadAll(audio)
	require.NoError(t, err)
	assert.Equal(t, "ID3fake", string(data))
	assert.Equal(t, request{
		Model:          DefaultModel,
		Input:          "Round 1: the doors open.",
		Voice:          DefaultVoice,
		ResponseFormat: "mp3",
		Speed:          1.0,
	}, got)
}

func TestSynthesize_InputErrors(t *testing.T) {
	_, err := NewClient("sk-test").Synthesize(context.Background(), "   ", "nova")
	assert.ErrorIs(t, err, ErrMissingText)

	_, err = NewClient("").Synthesize(context.Background(), "hello", "nova")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestSynthesize_UpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("sk-test")
	client.BaseURL = server.URL

	_, err := client.Synthesize(context.Background(), "hello", "alloy")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusTooManyRequests, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "quota")
}

func TestSynthesize_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient("sk-test")
	client.BaseURL = url

	_, err := client.Synthesize(context.Background(), "hello", "")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Error(t, upstream.Cause)
}
