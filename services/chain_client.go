// services/chain_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"creator-indexer/utils"
)

// QueryErrorReason classifies a failed chain query.
type QueryErrorReason string

const (
	ReasonTransport   QueryErrorReason = "transport"
	ReasonApplication QueryErrorReason = "application"
	ReasonDecode      QueryErrorReason = "decode"
)

// QueryError is the soft error every chain query returns instead of aborting.
// Callers decide whether it costs them a field, a record or a whole entity type.
type QueryError struct {
	Reason   QueryErrorReason
	Messages []string
	Err      error
}

func (e *QueryError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	return fmt.Sprintf("chain query %s error: %s", e.Reason, msg)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsQueryError reports whether err carries a QueryError with the given reason.
func IsQueryError(err error, reason QueryErrorReason) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.Reason == reason
}

const (
	allProfilesQuery = `query AllProfiles {
  allProfilesView { owner chainId name bio socials { name url } avatarHash headerHash }
}`
	allDonationsQuery = `query AllDonations {
  allDonationsView { timestamp fromOwner fromChainId toOwner toChainId amount message }
}`
	allProductsQuery = `query AllProducts {
  allProducts { id author authorChainId publicData { key value } price orderForm { key label fieldType required } createdAt }
}`
	allSubscriptionOffersQuery = `query AllSubscriptionOffers {
  allSubscriptionPrices { author price description }
}`
	dataBlobQuery = `query DataBlob($hash: String!) {
  dataBlob(hash: $hash)
}`
)

// ChainClient issues read queries against one application on one chain.
type ChainClient struct {
	endpoint   string
	HTTPClient *http.Client
}

// NewChainClient targets {nodeURL}/chains/{chainID}/applications/{applicationID}.
func NewChainClient(nodeURL, chainID, applicationID string, timeout time.Duration) (*ChainClient, error) {
	base, err := url.Parse(nodeURL)
	if err != nil {
		return nil, fmt.Errorf("invalid node URL '%s': %w", nodeURL, err)
	}
	if chainID == "" || applicationID == "" {
		return nil, errors.New("chain ID and application ID are required")
	}
	return &ChainClient{
		endpoint:   base.JoinPath("chains", chainID, "applications", applicationID).String(),
		HTTPClient: utils.NewHTTPClient(timeout),
	}, nil
}

// Endpoint returns the application query URL.
func (c *ChainClient) Endpoint() string { return c.endpoint }

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Query runs one GraphQL query and decodes its data object into out.
func (c *ChainClient) Query(ctx context.Context, query string, variables map[string]any, out any) error {
	err := c.query(ctx, query, variables, out)
	var qe *QueryError
	if errors.As(err, &qe) {
		utils.ChainQueryErrors.WithLabelValues(string(qe.Reason)).Inc()
		log.Printf("[CHAIN] ⚠️ %v", qe)
	}
	return err
}

func (c *ChainClient) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return &QueryError{Reason: ReasonDecode, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &QueryError{Reason: ReasonTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &QueryError{Reason: ReasonTransport, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &QueryError{
			Reason: ReasonTransport,
			Err:    fmt.Errorf("node returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &QueryError{Reason: ReasonDecode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return &QueryError{Reason: ReasonApplication, Messages: msgs}
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &QueryError{Reason: ReasonDecode, Err: errors.New("response has no data")}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &QueryError{Reason: ReasonDecode, Err: fmt.Errorf("unexpected data shape: %w", err)}
	}
	return nil
}

func missingField(name string) error {
	return &QueryError{Reason: ReasonDecode, Err: fmt.Errorf("response is missing %s", name)}
}

// AllProfiles reads every profile with its resolved chain ID.
func (c *ChainClient) AllProfiles(ctx context.Context) ([]ChainProfile, error) {
	var data struct {
		AllProfilesView *[]ChainProfile `json:"allProfilesView"`
	}
	if err := c.Query(ctx, allProfilesQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.AllProfilesView == nil {
		return nil, missingField("allProfilesView")
	}
	return *data.AllProfilesView, nil
}

// AllDonations reads every donation with source and target chains resolved.
func (c *ChainClient) AllDonations(ctx context.Context) ([]ChainDonation, error) {
	var data struct {
		AllDonationsView *[]ChainDonation `json:"allDonationsView"`
	}
	if err := c.Query(ctx, allDonationsQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.AllDonationsView == nil {
		return nil, missingField("allDonationsView")
	}
	return *data.AllDonationsView, nil
}

// AllProducts reads the public view of every product.
func (c *ChainClient) AllProducts(ctx context.Context) ([]ChainProduct, error) {
	var data struct {
		AllProducts *[]ChainProduct `json:"allProducts"`
	}
	if err := c.Query(ctx, allProductsQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.AllProducts == nil {
		return nil, missingField("allProducts")
	}
	return *data.AllProducts, nil
}

// AllSubscriptionOffers reads every author's subscription price.
func (c *ChainClient) AllSubscriptionOffers(ctx context.Context) ([]ChainSubscriptionOffer, error) {
	var data struct {
		AllSubscriptionPrices *[]ChainSubscriptionOffer `json:"allSubscriptionPrices"`
	}
	if err := c.Query(ctx, allSubscriptionOffersQuery, nil, &data); err != nil {
		return nil, err
	}
	if data.AllSubscriptionPrices == nil {
		return nil, missingField("allSubscriptionPrices")
	}
	return *data.AllSubscriptionPrices, nil
}

// DataBlob fetches the payload of a published data blob by content hash.
func (c *ChainClient) DataBlob(ctx context.Context, hash string) ([]byte, error) {
	var data struct {
		DataBlob *blobBytes `json:"dataBlob"`
	}
	if err := c.Query(ctx, dataBlobQuery, map[string]any{"hash": hash}, &data); err != nil {
		return nil, err
	}
	if data.DataBlob == nil {
		return nil, &QueryError{Reason: ReasonApplication, Messages: []string{fmt.Sprintf("blob %s not found", hash)}}
	}
	return []byte(*data.DataBlob), nil
}
