package httpquiz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quiz-session/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Client fetches quiz documents with a single unauthenticated GET.
type Client struct {
	httpClient *http.Client
}

// NewClient wraps httpClient; nil gets a client with a 10s timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient}
}

// LoadQuiz GETs url and decodes the quiz document.
func (c *Client) LoadQuiz(ctx context.Context, url string) (domain.Quiz, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Quiz{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Quiz{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Quiz{}, fmt.Errorf("quiz provider returned status %d", resp.StatusCode)
	}

	var quiz domain.Quiz
	if err := json.NewDecoder(resp.Body).Decode(&quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz: %w", err)
	}
	return quiz, nil
}
