package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewNewsAPIAdapter builds the adapter for newsapi.org's "everything"
// endpoint, authenticated via the X-Api-Key header.
func NewNewsAPIAdapter(apiKey string) Adapter {
	return newHTTPAdapter("newsapi", newsAPIBuildRequest(apiKey), newsAPIParseResponse)
}

func newsAPIBuildRequest(apiKey string) buildRequestFunc {
	return func(ctx context.Context, req FetchRequest) (*http.Request, error) {
		q := url.Values{}
		q.Set("q", req.Term)
		q.Set("sortBy", "publishedAt")
		if req.Language != "" {
			q.Set("language", req.Language)
		}
		if req.Max > 0 {
			q.Set("pageSize", fmt.Sprintf("%d", req.Max))
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, newsAPIBaseURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("X-Api-Key", apiKey)
		return httpReq, nil
	}
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

func newsAPIParseResponse(body []byte) ([]NormalizedArticle, error) {
	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("newsapi: decode response: %w", err)
	}

	articles := make([]NormalizedArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, NormalizedArticle{
			CanonicalURL: a.URL,
			Title:        a.Title,
			SourceName:   a.Source.Name,
			SourceID:     a.Source.ID,
			Author:       a.Author,
			Summary:      a.Description,
			Content:      a.Content,
			ImageURL:     a.URLToImage,
			PublishedAt:  published,
		})
	}
	return articles, nil
}
