package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/parser"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

const logsPath = "/rest/v1/agent_logs"

// RemoteSource reads the agent_logs table through a PostgREST-style API
type RemoteSource struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewRemoteSource(baseURL, apiKey string, timeout time.Duration) *RemoteSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RemoteSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (s *RemoteSource) Name() string {
	return KindRemote
}

func (s *RemoteSource) requestURL(agent string) string {
	query := "select=*&order=id.desc"
	if agent != "" {
		query += "&agent_system_name=eq." + url.QueryEscape(agent)
	}
	return s.baseURL + logsPath + "?" + query
}

func (s *RemoteSource) FetchLogs(ctx context.Context, agent string) ([]model.LogRecord, error) {
	endpoint := s.requestURL(agent)
	util.LogDebugf("Fetching agent logs: %s", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		util.LogDebugf("Unexpected HTTP status code: %d", resp.StatusCode)
		if env, perr := parser.ParseEnvelope(body); perr != nil && env != nil {
			return nil, fmt.Errorf("%w: status %d: %s", ErrRemoteUnavailable, resp.StatusCode, env.Message)
		}
		return nil, fmt.Errorf("%w: unexpected status code: %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	env, err := parser.ParseEnvelope(body)
	if err != nil {
		if errors.Is(err, parser.ErrRemoteReported) {
			return nil, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
		}
		return nil, err
	}

	util.LogDebugf("Received %d records in %s envelope", len(env.Records), env.Kind)
	return timeline.FilterByAgent(env.Records, agent), nil
}
