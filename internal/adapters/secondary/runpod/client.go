package runpod

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"k8s.io/apimachinery/pkg/util/wait"

	"model-execution-service/internal/config"
	"model-execution-service/internal/core/domain"
	ports "model-execution-service/internal/core/ports/output"
)

// maxErrorBody caps how much of a failed response is kept on the error.
const maxErrorBody = 4 << 10

type runpodClient struct {
	baseURL     string
	apiKey      string
	maxRetries  int
	retryDelay  time.Duration
	syncTimeout time.Duration
	client      *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a new remote execution client adapter
func NewClient(cfg *config.RemoteConfig) ports.RemoteExecutionClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &runpodClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		maxRetries:  maxRetries,
		retryDelay:  cfg.RetryDelay,
		syncTimeout: cfg.SyncTimeout,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
	}
}

// ============================================================================
// Operations
// ============================================================================

type runRequest struct {
	Input map[string]interface{} `json:"input"`
}

func (c *runpodClient) Submit(ctx context.Context, endpointID string, input map[string]interface{}) (*ports.RemoteJob, error) {
	var job ports.RemoteJob
	if err := c.do(ctx, http.MethodPost, c.endpointURL(endpointID, "/run"), runRequest{Input: input}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *runpodClient) GetStatus(ctx context.Context, endpointID, jobID string) (*ports.RemoteJobStatus, error) {
	var status ports.RemoteJobStatus
	if err := c.do(ctx, http.MethodGet, c.endpointURL(endpointID, "/status/"+jobID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *runpodClient) Cancel(ctx context.Context, endpointID, jobID string) error {
	return c.do(ctx, http.MethodPost, c.endpointURL(endpointID, "/cancel/"+jobID), nil, nil)
}

// SubmitSync blocks on /runsync. The shared HTTP client timeout is lifted for
// this call and bounded by syncTimeout on the context instead.
func (c *runpodClient) SubmitSync(ctx context.Context, endpointID string, input map[string]interface{}) (*ports.RemoteJobStatus, error) {
	if c.syncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.syncTimeout)
		defer cancel()
	}

	var status ports.RemoteJobStatus
	if err := c.doWith(ctx, c.syncHTTPClient(), http.MethodPost, c.endpointURL(endpointID, "/runsync"), runRequest{Input: input}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ============================================================================
// Transport
// ============================================================================

func (c *runpodClient) endpointURL(endpointID, path string) string {
	return fmt.Sprintf("%s/%s%s", c.baseURL, endpointID, path)
}

func (c *runpodClient) syncHTTPClient() *http.Client {
	return &http.Client{Transport: c.client.Transport}
}

func (c *runpodClient) do(ctx context.Context, method, url string, body, out interface{}) error {
	return c.doWith(ctx, c.client, method, url, body, out)
}

// doWith runs one logical call with up to 1+maxRetries attempts spaced by a
// fixed retryDelay. Only 5xx responses are retried.
func (c *runpodClient) doWith(ctx context.Context, hc *http.Client, method, url string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	backoff := wait.Backoff{
		Duration: c.retryDelay,
		Steps:    c.maxRetries + 1,
	}

	var lastErr error
	attempt := 0
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return false, domain.NewRemoteError(0, "", err)
		}

		status, respBody, err := c.roundTrip(ctx, hc, method, url, payload)
		if err != nil {
			return false, domain.NewRemoteError(0, "", err)
		}

		switch {
		case status >= 200 && status < 300:
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return false, domain.NewRemoteError(status, truncate(respBody), fmt.Errorf("decode response: %w", err))
				}
			}
			return true, nil
		case status >= 500:
			lastErr = domain.NewRemoteError(status, truncate(respBody), nil)
			log.WithFields(log.Fields{
				"method":  method,
				"url":     url,
				"status":  status,
				"attempt": attempt,
			}).Warn("remote call failed, retrying")
			return false, nil
		default:
			return false, domain.NewRemoteError(status, truncate(respBody), nil)
		}
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, wait.ErrWaitTimeout) && lastErr != nil:
		log.WithFields(log.Fields{
			"method":   method,
			"url":      url,
			"attempts": attempt,
		}).Error("remote call failed after retries")
		return lastErr
	case domain.KindOf(err) == domain.KindRemote:
		return err
	case lastErr != nil:
		// context ended between attempts
		return domain.NewRemoteError(domain.RemoteStatusCode(lastErr), "", err)
	default:
		return domain.NewRemoteError(0, "", err)
	}
}

func (c *runpodClient) roundTrip(ctx context.Context, hc *http.Client, method, url string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return string(b)
}
