package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const mediastackBaseURL = "https://api.mediastack.com/v1/news"

// NewMediastackAdapter builds the adapter for mediastack.com, which takes
// its API key as a query parameter rather than a header.
func NewMediastackAdapter(apiKey string) Adapter {
	return newHTTPAdapter("mediastack", mediastackBuildRequest(apiKey), mediastackParseResponse)
}

func mediastackBuildRequest(apiKey string) buildRequestFunc {
	return func(ctx context.Context, req FetchRequest) (*http.Request, error) {
		q := url.Values{}
		q.Set("access_key", apiKey)
		q.Set("keywords", req.Term)
		q.Set("sort", "published_desc")
		if req.Language != "" {
			q.Set("languages", req.Language)
		}
		if req.Max > 0 {
			q.Set("limit", fmt.Sprintf("%d", req.Max))
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, mediastackBaseURL+"?"+q.Encode(), nil)
	}
}

type mediastackResponse struct {
	Data []struct {
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      string `json:"source"`
		Image       string `json:"image"`
		Category    string `json:"category"`
		Language    string `json:"language"`
		PublishedAt string `json:"published_at"`
	} `json:"data"`
}

func mediastackParseResponse(body []byte) ([]NormalizedArticle, error) {
	var parsed mediastackResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("mediastack: decode response: %w", err)
	}

	articles := make([]NormalizedArticle, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		published, _ := time.Parse(time.RFC3339, d.PublishedAt)
		articles = append(articles, NormalizedArticle{
			CanonicalURL: d.URL,
			Title:        d.Title,
			SourceName:   d.Source,
			Author:       d.Author,
			Summary:      d.Description,
			ImageURL:     d.Image,
			Category:     d.Category,
			Language:     d.Language,
			PublishedAt:  published,
		})
	}
	return articles, nil
}
