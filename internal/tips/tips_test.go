package tips

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points the client at an httptest server.
func newTestClient() *Client {
	c := NewClient(nil)
	c.scheme = "http"
	return c
}

// lnurlServer serves a well-known descriptor for "alice" plus its
// invoice callback.
func lnurlServer(t *testing.T, commentAllowed int, callbackHandler http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/lnurlp/alice", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PayRequest{
			Callback:       srv.URL + "/invoice",
			MinSendable:    1000,
			MaxSendable:    100000000,
			CommentAllowed: commentAllowed,
			Tag:            "payRequest",
		})
	})
	if callbackHandler != nil {
		mux.HandleFunc("/invoice", callbackHandler)
	}

	return srv
}

func addressFor(srv *httptest.Server) string {
	return "alice@" + strings.TrimPrefix(srv.URL, "http://")
}

func TestResolve(t *testing.T) {
	srv := lnurlServer(t, 120, nil)

	pr, err := newTestClient().Resolve(context.Background(), addressFor(srv))
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/invoice", pr.Callback)
	assert.Equal(t, int64(1000), pr.MinSendable)
	assert.Equal(t, int64(100000000), pr.MaxSendable)
	assert.Equal(t, 120, pr.CommentAllowed)
}

func TestResolve_InvalidAddress(t *testing.T) {
	c := newTestClient()

	for _, address := range []string{"alice", "@example.com", "alice@", "a@b@c"} {
		_, err := c.Resolve(context.Background(), address)
		assert.ErrorIs(t, err, ErrInvalidAddress, address)
	}
}

func TestResolve_WrongTag(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/lnurlp/alice", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"tag": "withdrawRequest"})
	})

	_, err := newTestClient().Resolve(context.Background(), addressFor(srv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "withdrawRequest")
}

func TestResolve_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := newTestClient().Resolve(context.Background(), addressFor(srv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestRequestInvoice(t *testing.T) {
	var gotAmount, gotComment string
	srv := lnurlServer(t, 120, func(w http.ResponseWriter, r *http.Request) {
		gotAmount = r.URL.Query().Get("amount")
		gotComment = r.URL.Query().Get("comment")
		json.NewEncoder(w).Encode(map[string]string{"pr": "lnbc210n1fake"})
	})

	c := newTestClient()
	pr, err := c.Resolve(context.Background(), addressFor(srv))
	require.NoError(t, err)

	invoice, err := c.RequestInvoice(context.Background(), pr, 21000, "thanks!")
	require.NoError(t, err)

	assert.Equal(t, "lnbc210n1fake", invoice)
	assert.Equal(t, "21000", gotAmount)
	assert.Equal(t, "thanks!", gotComment)
}

func TestRequestInvoice_AmountOutOfRange(t *testing.T) {
	c := newTestClient()
	pr := PayRequest{Callback: "http://unused", MinSendable: 1000, MaxSendable: 5000}

	_, err := c.RequestInvoice(context.Background(), pr, 500, "")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = c.RequestInvoice(context.Background(), pr, 6000, "")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestRequestInvoice_CommentTooLong(t *testing.T) {
	c := newTestClient()
	pr := PayRequest{Callback: "http://unused", MinSendable: 1, MaxSendable: 1000000, CommentAllowed: 5}

	_, err := c.RequestInvoice(context.Background(), pr, 1000, "this comment is too long")
	assert.ErrorIs(t, err, ErrCommentTooLong)
}

func TestRequestInvoice_ServerError(t *testing.T) {
	srv := lnurlServer(t, 0, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ERROR", "reason": "node offline"})
	})

	c := newTestClient()
	pr, err := c.Resolve(context.Background(), addressFor(srv))
	require.NoError(t, err)

	_, err = c.RequestInvoice(context.Background(), pr, 1000, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "node offline")
}

func TestTip(t *testing.T) {
	srv := lnurlServer(t, 120, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"pr": "lnbc500n1fake"}`)
	})

	invoice, err := newTestClient().Tip(context.Background(), addressFor(srv), 50, "great support")
	require.NoError(t, err)
	assert.Equal(t, "lnbc500n1fake", invoice)
}
