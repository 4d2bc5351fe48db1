package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const newsdataBaseURL = "https://newsdata.io/api/1/news"

// NewNewsdataAdapter builds the adapter for newsdata.io.
func NewNewsdataAdapter(apiKey string) Adapter {
	return newHTTPAdapter("newsdata", newsdataBuildRequest(apiKey), newsdataParseResponse)
}

func newsdataBuildRequest(apiKey string) buildRequestFunc {
	return func(ctx context.Context, req FetchRequest) (*http.Request, error) {
		q := url.Values{}
		q.Set("apikey", apiKey)
		q.Set("q", req.Term)
		if req.Language != "" {
			q.Set("language", req.Language)
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, newsdataBaseURL+"?"+q.Encode(), nil)
	}
}

// newsdataTimestampLayout is newsdata.io's space-separated UTC timestamp.
const newsdataTimestampLayout = "2006-01-02 15:04:05"

type newsdataResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Title       string   `json:"title"`
		Link        string   `json:"link"`
		Keywords    []string `json:"keywords"`
		Creator     []string `json:"creator"`
		Description string   `json:"description"`
		Content     string   `json:"content"`
		PubDate     string   `json:"pubDate"`
		ImageURL    string   `json:"image_url"`
		SourceID    string   `json:"source_id"`
		Category    []string `json:"category"`
		Language    string   `json:"language"`
	} `json:"results"`
}

func newsdataParseResponse(body []byte) ([]NormalizedArticle, error) {
	var parsed newsdataResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("newsdata: decode response: %w", err)
	}

	articles := make([]NormalizedArticle, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		published, _ := time.Parse(newsdataTimestampLayout, r.PubDate)
		author := ""
		if len(r.Creator) > 0 {
			author = r.Creator[0]
		}
		category := ""
		if len(r.Category) > 0 {
			category = r.Category[0]
		}
		articles = append(articles, NormalizedArticle{
			CanonicalURL: r.Link,
			Title:        r.Title,
			SourceName:   r.SourceID,
			SourceID:     r.SourceID,
			Author:       author,
			Summary:      r.Description,
			Content:      r.Content,
			ImageURL:     r.ImageURL,
			Category:     category,
			Language:     r.Language,
			PublishedAt:  published,
		})
	}
	return articles, nil
}
