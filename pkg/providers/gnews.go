package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const gnewsBaseURL = "https://gnews.io/api/v4/search"

// NewGNewsAdapter builds the adapter for gnews.io.
func NewGNewsAdapter(apiKey string) Adapter {
	return newHTTPAdapter("gnews", gnewsBuildRequest(apiKey), gnewsParseResponse)
}

func gnewsBuildRequest(apiKey string) buildRequestFunc {
	return func(ctx context.Context, req FetchRequest) (*http.Request, error) {
		q := url.Values{}
		q.Set("token", apiKey)
		q.Set("q", req.Term)
		q.Set("sortby", "publishedAt")
		if req.Language != "" {
			q.Set("lang", req.Language)
		}
		if req.Max > 0 {
			q.Set("max", fmt.Sprintf("%d", req.Max))
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, gnewsBaseURL+"?"+q.Encode(), nil)
	}
}

type gnewsResponse struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"source"`
	} `json:"articles"`
}

func gnewsParseResponse(body []byte) ([]NormalizedArticle, error) {
	var parsed gnewsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("gnews: decode response: %w", err)
	}

	articles := make([]NormalizedArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, NormalizedArticle{
			CanonicalURL: a.URL,
			Title:        a.Title,
			SourceName:   a.Source.Name,
			Summary:      a.Description,
			Content:      a.Content,
			ImageURL:     a.Image,
			PublishedAt:  published,
		})
	}
	return articles, nil
}
