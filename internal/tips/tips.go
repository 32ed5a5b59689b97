// Package tips resolves Lightning addresses via LNURL-pay so requesters
// can tip the agent who resolved their ticket. It stops at fetching a
// BOLT11 invoice; paying it is the requester's wallet's job.
package tips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidAddress indicates a malformed Lightning address.
	ErrInvalidAddress = errors.New("invalid lightning address")
	// ErrAmountOutOfRange indicates the amount violates the recipient's bounds.
	ErrAmountOutOfRange = errors.New("amount out of range")
	// ErrCommentTooLong indicates the comment exceeds the recipient's limit.
	ErrCommentTooLong = errors.New("comment too long")
)

// PayRequest is the recipient's LNURL-pay descriptor. Amounts are in
// millisatoshis, per the protocol.
type PayRequest struct {
	Callback       string `json:"callback"`
	MinSendable    int64  `json:"minSendable"`
	MaxSendable    int64  `json:"maxSendable"`
	CommentAllowed int    `json:"commentAllowed"`
	Tag            string `json:"tag"`
}

// Client fetches LNURL-pay invoices.
type Client struct {
	logger *slog.Logger
	httpc  *http.Client
	scheme string
}

// NewClient creates a tips client.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		logger: logger,
		httpc:  &http.Client{Timeout: 15 * time.Second},
		scheme: "https",
	}
}

// Resolve looks up the LNURL-pay descriptor for a Lightning address
// (name@domain).
func (c *Client) Resolve(ctx context.Context, address string) (PayRequest, error) {
	name, domain, ok := splitAddress(address)
	if !ok {
		return PayRequest{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	endpoint := fmt.Sprintf("%s://%s/.well-known/lnurlp/%s", c.scheme, domain, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return PayRequest{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return PayRequest{}, fmt.Errorf("failed to resolve %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return PayRequest{}, fmt.Errorf("failed to resolve %s: HTTP %d", address, resp.StatusCode)
	}

	var pr PayRequest
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return PayRequest{}, fmt.Errorf("failed to decode pay request: %w", err)
	}

	if pr.Tag != "payRequest" {
		return PayRequest{}, fmt.Errorf("unexpected LNURL tag %q for %s", pr.Tag, address)
	}
	if pr.Callback == "" {
		return PayRequest{}, fmt.Errorf("pay request for %s has no callback", address)
	}

	return pr, nil
}

// invoiceResponse is the callback response; status/reason carry errors.
type invoiceResponse struct {
	PR     string `json:"pr"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// RequestInvoice asks the recipient's server for a BOLT11 invoice for
// the given amount in millisatoshis.
func (c *Client) RequestInvoice(ctx context.Context, pr PayRequest, amountMsat int64, comment string) (string, error) {
	if amountMsat < pr.MinSendable || amountMsat > pr.MaxSendable {
		return "", fmt.Errorf("%w: %d msat not in [%d, %d]", ErrAmountOutOfRange, amountMsat, pr.MinSendable, pr.MaxSendable)
	}
	if comment != "" && len(comment) > pr.CommentAllowed {
		return "", fmt.Errorf("%w: %d chars, limit %d", ErrCommentTooLong, len(comment), pr.CommentAllowed)
	}

	callback, err := url.Parse(pr.Callback)
	if err != nil {
		return "", fmt.Errorf("invalid callback URL: %w", err)
	}

	q := callback.Query()
	q.Set("amount", strconv.FormatInt(amountMsat, 10))
	if comment != "" {
		q.Set("comment", comment)
	}
	callback.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", callback.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request invoice: %w", err)
	}
	defer resp.Body.Close()

	var inv invoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&inv); err != nil {
		return "", fmt.Errorf("failed to decode invoice response: %w", err)
	}

	if strings.EqualFold(inv.Status, "ERROR") {
		return "", fmt.Errorf("invoice rejected: %s", inv.Reason)
	}
	if inv.PR == "" {
		return "", errors.New("invoice response has no payment request")
	}

	return inv.PR, nil
}

// Tip resolves a Lightning address and fetches an invoice for the given
// amount in satoshis.
func (c *Client) Tip(ctx context.Context, address string, amountSats int64, comment string) (string, error) {
	pr, err := c.Resolve(ctx, address)
	if err != nil {
		return "", err
	}

	c.logger.Info("resolved lightning address", "address", address,
		"min_msat", pr.MinSendable, "max_msat", pr.MaxSendable)

	invoice, err := c.RequestInvoice(ctx, pr, amountSats*1000, comment)
	if err != nil {
		return "", err
	}

	return invoice, nil
}

// splitAddress splits name@domain, rejecting anything else.
func splitAddress(address string) (name, domain string, ok bool) {
	parts := strings.Split(address, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
