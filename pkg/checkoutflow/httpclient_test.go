package checkoutflow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, GatewayID, r.PostForm.Get("payment_method"))
		assert.Equal(t, "42", r.PostForm.Get("order_id"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":"success","payment_link":"https://pay.simpleso.io/link/abc","order_id":42}`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.URL, "token")
	result, err := client.Submit(context.Background(), checkoutFlowForm())
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "https://pay.simpleso.io/link/abc", result.PaymentLink)
	assert.Equal(t, int64(42), result.OrderID)
}

func TestHTTPClientSubmitFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":"failure","messages":"Payment error: daily limit reached"}`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.URL, "token")
	result, err := client.Submit(context.Background(), checkoutFlowForm())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Payment error: daily limit reached", result.Message)
}

func TestHTTPClientCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "check_payment_status", r.PostForm.Get("action"))
		assert.Equal(t, "42", r.PostForm.Get("order_id"))
		assert.Equal(t, "token", r.PostForm.Get("security"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"data":{"status":"success","redirect_url":"https://shop.example/order-received/42/?key=k"}}`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.URL, "token")
	update, err := client.Check(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, "success", update.Status)
	assert.Equal(t, "https://shop.example/order-received/42/?key=k", update.RedirectURL)
}

func TestHTTPClientCheckRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":false,"data":{"error":"Invalid security token"}}`)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.URL, "token")
	_, err := client.Check(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid security token")
}

func TestHTTPClientTransportError(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1/checkout", "http://127.0.0.1:1/ajax", "token")

	_, err := client.Submit(context.Background(), checkoutFlowForm())
	assert.Error(t, err)

	_, err = client.Check(context.Background(), 42)
	assert.Error(t, err)
}

func TestHTTPClientSubmitBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>gateway error</html>")
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.URL, "token")
	_, err := client.Submit(context.Background(), url.Values{})
	assert.Error(t, err)
}
