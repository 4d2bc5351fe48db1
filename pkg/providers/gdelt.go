package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const gdeltBaseURL = "https://api.gdeltproject.org/api/v2/doc/doc"

// NewGDELTAdapter builds the adapter for the GDELT Doc 2.0 API, an
// unauthenticated public feed with its own timestamp format.
func NewGDELTAdapter() Adapter {
	return newHTTPAdapter("gdelt", gdeltBuildRequest, gdeltParseResponse)
}

func gdeltBuildRequest(ctx context.Context, req FetchRequest) (*http.Request, error) {
	q := url.Values{}
	q.Set("query", req.Term)
	q.Set("mode", "ArtList")
	q.Set("format", "json")
	q.Set("sort", "DateDesc")
	if req.Max > 0 {
		q.Set("maxrecords", fmt.Sprintf("%d", req.Max))
	}
	return http.NewRequestWithContext(ctx, http.MethodGet, gdeltBaseURL+"?"+q.Encode(), nil)
}

type gdeltResponse struct {
	Articles []struct {
		URL         string `json:"url"`
		Title       string `json:"title"`
		SeenDate    string `json:"seendate"`
		SourceLang  string `json:"language"`
		Domain      string `json:"domain"`
		SocialImage string `json:"socialimage"`
	} `json:"articles"`
}

// gdeltTimestampLayout is GDELT's compact YYYYMMDDHHMMSS "seendate" format.
const gdeltTimestampLayout = "20060102150405"

func gdeltParseResponse(body []byte) ([]NormalizedArticle, error) {
	var parsed gdeltResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("gdelt: decode response: %w", err)
	}

	articles := make([]NormalizedArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		published, _ := time.Parse(gdeltTimestampLayout, a.SeenDate)
		articles = append(articles, NormalizedArticle{
			CanonicalURL: a.URL,
			Title:        a.Title,
			SourceName:   a.Domain,
			Language:     a.SourceLang,
			ImageURL:     a.SocialImage,
			PublishedAt:  published,
		})
	}
	return articles, nil
}
