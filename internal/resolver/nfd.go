package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// NFDClient resolves .algo names against the NFDomains API.
type NFDClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNFDClient creates a new NFDClient.
func NewNFDClient(baseURL string) *NFDClient {
	return &NFDClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type nfdRecord struct {
	Name           string `json:"name"`
	Owner          string `json:"owner"`
	DepositAccount string `json:"depositAccount"`
}

// LookupName resolves a name to its deposit account.
func (c *NFDClient) LookupName(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/nfd/%s", c.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build NFD request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "NFD lookup request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("name %s is not registered", name)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("NFD lookup returned status %d", resp.StatusCode)
	}

	var record nfdRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return "", errors.Wrap(err, "failed to decode NFD response")
	}

	if record.DepositAccount != "" {
		return record.DepositAccount, nil
	}
	return record.Owner, nil
}
