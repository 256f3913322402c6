package coinninja

import (
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/coinninja/dropbitd/pkg/httputil"
)

const (
	requestsPerSecond = 10

	checkinCacheKey = "checkin"
)

var (
	// CheckinCacheTTL is how long a check-in response stays fresh. Rapid
	// triggers reuse the cached fees and rates instead of hammering the API.
	CheckinCacheTTL = 60 * time.Second

	// MaxNumOfFailingRequests ...
	MaxNumOfFailingRequests = 10
	// FailingRatio ...
	FailingRatio = 0.6
)

// Service is the representation of the wallet API consumed by the sync
// pipeline. Request and response bodies are treated as already-decoded DTOs.
type Service interface {
	// Checkin returns chain tip, fee estimates and fiat pricing.
	Checkin() (*CheckinResponse, error)
	// GetAddressTransactionSummaries returns, for each queried address, the
	// txids that touched it.
	GetAddressTransactionSummaries(addresses []string) ([]AddressTransactionSummary, error)
	// GetTransaction returns the full detail payload of a transaction.
	GetTransaction(txid string) (*TransactionResponse, error)
	// GetInvitations returns all the invitations of the authenticated user.
	GetInvitations() ([]InvitationResponse, error)
	// CreateAddressRequest opens a new DropBit toward a counterparty.
	CreateAddressRequest(data AddressRequestData) (*InvitationResponse, error)
	// AcknowledgeInvitation completes a sent DropBit with its broadcast txid.
	AcknowledgeInvitation(data AcknowledgementData) (*InvitationResponse, error)
	// CancelInvitation cancels a sent DropBit server-side.
	CancelInvitation(id string) (*InvitationResponse, error)
	// AddWalletAddresses uploads server-pool addresses usable to satisfy
	// incoming DropBits.
	AddWalletAddresses(data []WalletAddressData) error
	// GetUser returns the verification status of the local user/device pair.
	GetUser() (*UserResponse, error)
}

type client struct {
	apiURL  string
	signer  *authSigner
	limiter ratelimit.Limiter
	breaker *gobreaker.CircuitBreaker
	cache   *gocache.Cache
}

// Opts defines the parameters needed for creating a client with NewService.
type Opts struct {
	APIURL       string
	WalletID     string
	DeviceSecret []byte
}

// NewService returns a rate-limited, circuit-broken client of the wallet API.
func NewService(opts Opts) Service {
	return &client{
		apiURL:  opts.APIURL,
		signer:  newAuthSigner(opts.WalletID, opts.DeviceSecret),
		limiter: ratelimit.New(requestsPerSecond),
		breaker: newCircuitBreaker(),
		cache:   gocache.New(CheckinCacheTTL, 2*CheckinCacheTTL),
	}
}

func (c *client) Checkin() (*CheckinResponse, error) {
	if cached, ok := c.cache.Get(checkinCacheKey); ok {
		return cached.(*CheckinResponse), nil
	}

	var checkin CheckinResponse
	url := fmt.Sprintf("%s/wallet/check-in", c.apiURL)
	if err := c.get(url, &checkin); err != nil {
		return nil, err
	}

	c.cache.SetDefault(checkinCacheKey, &checkin)
	return &checkin, nil
}

func (c *client) GetAddressTransactionSummaries(
	addresses []string,
) ([]AddressTransactionSummary, error) {
	payload := map[string]interface{}{"query": map[string]interface{}{
		"address": addresses,
	}}
	body, _ := json.Marshal(payload)

	var summaries []AddressTransactionSummary
	url := fmt.Sprintf("%s/address-queries", c.apiURL)
	if err := c.post(url, string(body), &summaries); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (c *client) GetTransaction(txid string) (*TransactionResponse, error) {
	var tx TransactionResponse
	url := fmt.Sprintf("%s/transactions/%s", c.apiURL, txid)
	if err := c.get(url, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *client) GetInvitations() ([]InvitationResponse, error) {
	var invitations []InvitationResponse
	url := fmt.Sprintf("%s/wallet/address_requests", c.apiURL)
	if err := c.get(url, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

func (c *client) CreateAddressRequest(
	data AddressRequestData,
) (*InvitationResponse, error) {
	body, _ := json.Marshal(data)

	var invitation InvitationResponse
	url := fmt.Sprintf("%s/wallet/address_requests", c.apiURL)
	if err := c.post(url, string(body), &invitation); err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (c *client) AcknowledgeInvitation(
	data AcknowledgementData,
) (*InvitationResponse, error) {
	payload := map[string]string{
		"status":     InvitationStatusCompleted,
		"txid":       data.Txid,
		"request_id": data.RequestID,
	}
	body, _ := json.Marshal(payload)

	var invitation InvitationResponse
	url := fmt.Sprintf("%s/wallet/address_requests/%s", c.apiURL, data.InvitationID)
	if err := c.patch(url, string(body), &invitation); err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (c *client) CancelInvitation(id string) (*InvitationResponse, error) {
	payload := map[string]string{"status": InvitationStatusCanceled}
	body, _ := json.Marshal(payload)

	var invitation InvitationResponse
	url := fmt.Sprintf("%s/wallet/address_requests/%s", c.apiURL, id)
	if err := c.patch(url, string(body), &invitation); err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (c *client) AddWalletAddresses(data []WalletAddressData) error {
	body, _ := json.Marshal(data)
	url := fmt.Sprintf("%s/wallet/addresses", c.apiURL)
	return c.post(url, string(body), nil)
}

func (c *client) GetUser() (*UserResponse, error) {
	var user UserResponse
	url := fmt.Sprintf("%s/user", c.apiURL)
	if err := c.get(url, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *client) get(url string, dest interface{}) error {
	return c.request("GET", url, "", dest)
}

func (c *client) post(url, body string, dest interface{}) error {
	return c.request("POST", url, body, dest)
}

func (c *client) patch(url, body string, dest interface{}) error {
	return c.request("PATCH", url, body, dest)
}

func (c *client) request(method, url, body string, dest interface{}) error {
	headers, err := c.signer.headers()
	if err != nil {
		return err
	}

	c.limiter.Take()

	resp, err := c.breaker.Execute(func() (interface{}, error) {
		status, resp, err := httputil.NewHTTPRequest(method, url, body, headers)
		if err != nil {
			return nil, err
		}
		if err := errorForStatus(status, resp); err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return err
	}

	if dest == nil {
		return nil
	}
	return json.Unmarshal([]byte(resp.(string)), dest)
}

func newCircuitBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "coinninja",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
		},
	})
}
