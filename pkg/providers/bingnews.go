package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const bingNewsBaseURL = "https://api.bing.microsoft.com/v7.0/news/search"

// NewBingNewsAdapter builds the adapter for Bing News Search, authenticated
// via the Ocp-Apim-Subscription-Key header.
func NewBingNewsAdapter(apiKey string) Adapter {
	return newHTTPAdapter("bing_news", bingNewsBuildRequest(apiKey), bingNewsParseResponse)
}

func bingNewsBuildRequest(apiKey string) buildRequestFunc {
	return func(ctx context.Context, req FetchRequest) (*http.Request, error) {
		q := url.Values{}
		q.Set("q", req.Term)
		q.Set("sortBy", "Date")
		if req.Language != "" {
			q.Set("mkt", req.Language)
		}
		if req.Max > 0 {
			q.Set("count", fmt.Sprintf("%d", req.Max))
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, bingNewsBaseURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Ocp-Apim-Subscription-Key", apiKey)
		return httpReq, nil
	}
}

type bingNewsResponse struct {
	Value []struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		Provider []struct {
			Name string `json:"name"`
		} `json:"provider"`
		Description  string `json:"description"`
		DatePublished string `json:"datePublished"`
		Image        struct {
			Thumbnail struct {
				ContentURL string `json:"contentUrl"`
			} `json:"thumbnail"`
		} `json:"image"`
		Category string `json:"category"`
	} `json:"value"`
}

func bingNewsParseResponse(body []byte) ([]NormalizedArticle, error) {
	var parsed bingNewsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("bing_news: decode response: %w", err)
	}

	articles := make([]NormalizedArticle, 0, len(parsed.Value))
	for _, v := range parsed.Value {
		published, _ := time.Parse(time.RFC3339, v.DatePublished)
		sourceName := ""
		if len(v.Provider) > 0 {
			sourceName = v.Provider[0].Name
		}
		articles = append(articles, NormalizedArticle{
			CanonicalURL: v.URL,
			Title:        v.Name,
			SourceName:   sourceName,
			Summary:      v.Description,
			ImageURL:     v.Image.Thumbnail.ContentURL,
			Category:     v.Category,
			PublishedAt:  published,
		})
	}
	return articles, nil
}
