package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	sharedhttp "github.com/claro-ops/media-intel/pkg/shared/http"
)

// Adapter is the contract every news provider implements, per spec §4.2.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, req FetchRequest) ProviderFetchResult
}

// buildRequestFunc constructs the outbound HTTP request for a fetch.
type buildRequestFunc func(ctx context.Context, req FetchRequest) (*http.Request, error)

// parseResponseFunc decodes a successful response body into normalized
// articles; provider and term are injected by the caller.
type parseResponseFunc func(body []byte) ([]NormalizedArticle, error)

// httpAdapter is the shared fetch/retry/breaker harness every concrete
// provider adapter below configures with its own request/parse pair.
type httpAdapter struct {
	name          string
	client        *http.Client
	breaker       *gobreaker.CircuitBreaker
	buildRequest  buildRequestFunc
	parseResponse parseResponseFunc
}

func newHTTPAdapter(name string, buildRequest buildRequestFunc, parseResponse parseResponseFunc) *httpAdapter {
	return &httpAdapter{
		name:          name,
		client:        sharedhttp.NewClient(sharedhttp.ProviderClientConfig()),
		breaker:       NewBreaker(name),
		buildRequest:  buildRequest,
		parseResponse: parseResponse,
	}
}

func (a *httpAdapter) Name() string { return a.name }

// Fetch executes the request through the retry/backoff harness of
// retry.go and the circuit breaker of breaker.go, normalizing and
// capping every returned article per spec §4.2.
func (a *httpAdapter) Fetch(ctx context.Context, req FetchRequest) ProviderFetchResult {
	start := time.Now()
	result := ProviderFetchResult{Provider: a.name, Term: req.Term}

	breakerResult, breakerErr := a.breaker.Execute(func() (interface{}, error) {
		resp, errType, err := doWithRetry(ctx, func(attemptCtx context.Context) (*http.Response, ErrorType, error) {
			httpReq, buildErr := a.buildRequest(attemptCtx, req)
			if buildErr != nil {
				return nil, ErrorTypeSchema, buildErr
			}
			result.RequestURL = httpReq.URL.String()

			resp, doErr := a.client.Do(httpReq)
			if doErr != nil {
				if attemptCtx.Err() != nil {
					return nil, ErrorTypeTimeout, attemptCtx.Err()
				}
				return nil, ErrorTypeUnknown, doErr
			}
			if resp.StatusCode >= 300 {
				errType := classifyHTTPStatus(resp.StatusCode)
				resp.Body.Close()
				return nil, errType, fmt.Errorf("%s: unexpected status %d", a.name, resp.StatusCode)
			}
			return resp, "", nil
		})
		if err != nil {
			return nil, fetchErr{errType: errType, err: err}
		}
		return resp, nil
	})

	if breakerErr != nil {
		if fe, ok := breakerErr.(fetchErr); ok {
			result.ErrorType = fe.errType
			result.Error = fe.err.Error()
		} else if errors.Is(breakerErr, gobreaker.ErrOpenState) || errors.Is(breakerErr, gobreaker.ErrTooManyRequests) {
			result.ErrorType = ErrorTypeUnknown
			result.Error = ErrBreakerOpen.Error()
		} else {
			result.ErrorType = ErrorTypeUnknown
			result.Error = breakerErr.Error()
		}
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	resp := breakerResult.(*http.Response)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.ErrorType = ErrorTypeSchema
		result.Error = err.Error()
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	articles, err := a.parseResponse(body)
	if err != nil {
		result.ErrorType = ErrorTypeSchema
		result.Error = err.Error()
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	result.RawCount = len(articles)
	result.Items = normalizeAll(a.name, req.Term, articles)
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// fetchErr carries the classified error type through gobreaker.Execute,
// whose return signature has no room for a side channel.
type fetchErr struct {
	errType ErrorType
	err     error
}

func (f fetchErr) Error() string { return f.err.Error() }

// normalizeAll applies the provider/term tagging, string trimming and
// length caps, and canonical-URL requirement of spec §4.2 to every
// parsed article, dropping any that fail the required-fields check.
func normalizeAll(provider, term string, articles []NormalizedArticle) []NormalizedArticle {
	out := make([]NormalizedArticle, 0, len(articles))
	for _, a := range articles {
		a.Provider = provider
		a.Term = term
		if a.SourceType == "" {
			a.SourceType = "news"
		}
		a.Title = truncate(a.Title, maxTitleLen)
		a.Summary = truncate(a.Summary, maxSummaryLen)
		a.Content = truncate(a.Content, maxContentLen)

		canonical, err := Canonicalize(truncate(a.CanonicalURL, maxURLLen))
		if err != nil || canonical == "" || a.Title == "" {
			continue
		}
		a.CanonicalURL = canonical
		out = append(out, a)
	}
	return out
}
