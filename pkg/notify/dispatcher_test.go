package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/httpclient"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestSendText(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the payload to the relay", func(t *testing.T) {
		var got textPayload
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		dispatcher := NewDispatcher(httpclient.NewClient(httpclient.DefaultConfig(), noopLogger()), Config{
			WebhookURL: server.URL,
			Enabled:    true,
		}, noopLogger())

		err := dispatcher.SendText(ctx, "+15550001111", "hello", "user-1")
		require.NoError(t, err)
		assert.Equal(t, "+15550001111", got.PhoneNumber)
		assert.Equal(t, "hello", got.Text)
		assert.Equal(t, "user-1", got.ContextUserID)
	})

	t.Run("relay errors surface to the caller", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		dispatcher := NewDispatcher(httpclient.NewClient(httpclient.DefaultConfig(), noopLogger()), Config{
			WebhookURL: server.URL,
			Enabled:    true,
		}, noopLogger())

		err := dispatcher.SendText(ctx, "+15550001111", "hello", "user-1")
		require.Error(t, err)
	})

	t.Run("disabled dispatch is a silent no-op", func(t *testing.T) {
		dispatcher := NewDispatcher(httpclient.NewClient(httpclient.DefaultConfig(), noopLogger()), Config{
			WebhookURL: "http://relay.invalid",
			Enabled:    false,
		}, noopLogger())

		require.NoError(t, dispatcher.SendText(ctx, "+15550001111", "hello", "user-1"))
	})

	t.Run("missing phone number skips delivery", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		dispatcher := NewDispatcher(httpclient.NewClient(httpclient.DefaultConfig(), noopLogger()), Config{
			WebhookURL: server.URL,
			Enabled:    true,
		}, noopLogger())

		require.NoError(t, dispatcher.SendText(ctx, "", "hello", "user-1"))
		assert.False(t, called)
	})
}

func TestSendMatchText(t *testing.T) {
	var got textPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dispatcher := NewDispatcher(httpclient.NewClient(httpclient.DefaultConfig(), noopLogger()), Config{
		WebhookURL:         server.URL,
		Enabled:            true,
		MarketplaceBaseURL: "https://marketplace.local",
	}, noopLogger())

	err := dispatcher.SendMatchText(context.Background(), "+15550001111", "Liam", "Sunny apartment", "owner-1")
	require.NoError(t, err)
	assert.Contains(t, got.Text, "Liam")
	assert.Contains(t, got.Text, "Sunny apartment")
	assert.Contains(t, got.Text, "https://marketplace.local/conversations")
}
