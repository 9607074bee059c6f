package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatewaySender(t *testing.T, handler http.HandlerFunc) *AfricasTalkingSender {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sender, err := NewAfricasTalkingSender(AfricasTalkingConfig{
		Username:   "sandbox",
		APIKey:     "test-api-key",
		HTTPClient: srv.Client(),
	}, nil)
	require.NoError(t, err)
	// Point at the local gateway instead of the real sandbox.
	sender.apiURL = srv.URL
	return sender
}

func TestAfricasTalkingSend(t *testing.T) {
	var got *http.Request
	var form map[string][]string
	sender := gatewaySender(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"SMSMessageData":{"Message":"Sent to 1/1","Recipients":[{"number":"+254700000001","status":"Success","statusCode":101,"messageId":"ATXid_1"}]}}`))
	})

	err := sender.Send(context.Background(), "+254700000001", "Thank you for your order #7!")
	require.NoError(t, err)

	assert.Equal(t, "test-api-key", got.Header.Get("apiKey"))
	assert.Equal(t, []string{"sandbox"}, form["username"])
	assert.Equal(t, []string{"+254700000001"}, form["to"])
	assert.NotEmpty(t, form["message"])
	assert.Empty(t, form["from"], "sandbox sends without a sender id")
}

func TestAfricasTalkingSendRejectedRecipient(t *testing.T) {
	sender := gatewaySender(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"SMSMessageData":{"Message":"Sent to 0/1","Recipients":[{"number":"+254700000001","status":"InvalidPhoneNumber","statusCode":403}]}}`))
	})

	err := sender.Send(context.Background(), "+254700000001", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "InvalidPhoneNumber")
}

func TestAfricasTalkingSendGatewayError(t *testing.T) {
	sender := gatewaySender(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("The supplied authentication is invalid"))
	})

	err := sender.Send(context.Background(), "+254700000001", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestNewAfricasTalkingSenderRequiresCredentials(t *testing.T) {
	_, err := NewAfricasTalkingSender(AfricasTalkingConfig{}, nil)
	require.Error(t, err)
}

func TestNewAfricasTalkingSenderSandboxUsername(t *testing.T) {
	sender, err := NewAfricasTalkingSender(AfricasTalkingConfig{
		Username: "Sandbox",
		APIKey:   "k",
	}, nil)
	require.NoError(t, err)
	assert.True(t, sender.cfg.Sandbox)
	assert.Equal(t, africasTalkingSandboxURL, sender.apiURL)
}
