package esplora

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/coinninja/dropbitd/pkg/explorer"
	"github.com/coinninja/dropbitd/pkg/httputil"
)

const maxElapsedRetryTime = 15 * time.Second

type esplora struct {
	apiURL string
}

// NewService returns a new esplora service as an explorer.Service interface
func NewService(apiURL string) (explorer.Service, error) {
	service := &esplora{apiURL}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *esplora) healthCheck() error {
	_, err := e.GetBlockHeight()
	return err
}

func (e *esplora) HasTransaction(txid string) (bool, error) {
	var found bool
	// Esplora instances behind CDNs throw spurious errors now and then, a
	// flaky explorer must not make a grooming sweep flag healthy broadcasts.
	err := backoff.Retry(func() error {
		url := fmt.Sprintf("%s/tx/%s", e.apiURL, txid)
		status, resp, err := httputil.NewHTTPRequest("GET", url, "", nil)
		if err != nil {
			return err
		}
		switch status {
		case http.StatusOK:
			found = true
			return nil
		case http.StatusNotFound:
			found = false
			return nil
		default:
			return fmt.Errorf(resp)
		}
	}, retryPolicy())
	if err != nil {
		return false, err
	}
	return found, nil
}

func (e *esplora) IsTransactionConfirmed(txid string) (bool, error) {
	url := fmt.Sprintf("%s/tx/%s/status", e.apiURL, txid)
	status, resp, err := httputil.NewHTTPRequest("GET", url, "", nil)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, fmt.Errorf(resp)
	}

	var txStatus struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := json.Unmarshal([]byte(resp), &txStatus); err != nil {
		return false, err
	}
	return txStatus.Confirmed, nil
}

func (e *esplora) GetBlockHeight() (int, error) {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	status, resp, err := httputil.NewHTTPRequest("GET", url, "", nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf(resp)
	}

	return strconv.Atoi(resp)
}

func retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxElapsedRetryTime
	return policy
}
