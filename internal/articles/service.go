package articles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const DefaultIndex = "articles"

// Service wraps the article index. The client is constructed at startup
// and passed in; there is no package-level connection state.
type Service struct {
	client *elasticsearch.Client
	index  string
}

func NewService(client *elasticsearch.Client, index string) *Service {
	if index == "" {
		index = DefaultIndex
	}
	return &Service{
		client: client,
		index:  index,
	}
}

// Publish extracts plain text from the rich-text document, indexes both
// forms, and returns the stored article.
func (s *Service) Publish(ctx context.Context, title string, contentJSON json.RawMessage) (*domain.Article, error) {
	if title == "" {
		return nil, domain.Errorf(domain.EInvalid, "title is required")
	}

	var parsed any
	if err := json.Unmarshal(contentJSON, &parsed); err != nil {
		return nil, domain.Errorf(domain.EInvalid, "content_json is not valid JSON")
	}

	article := &domain.Article{
		Title:       title,
		Content:     ExtractText(parsed),
		ContentJSON: contentJSON,
		CreatedAt:   time.Now().UTC(),
	}

	doc, err := json.Marshal(map[string]any{
		"title":        article.Title,
		"content":      article.Content,
		"content_json": article.ContentJSON,
		"created_at":   article.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.client.Index(s.index, bytes.NewReader(doc),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("index article: %s", res.String())
	}

	var indexed struct {
		ID string `json:"_id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&indexed); err != nil {
		return nil, err
	}
	article.ID = indexed.ID

	return article, nil
}

// Search runs a multi_match over title and content, newest first. An
// empty query browses everything, and only then does each hit carry the
// full rich-text document.
func (s *Service) Search(ctx context.Context, query string) ([]domain.Article, error) {
	var body map[string]any
	if query != "" {
		body = map[string]any{
			"query": map[string]any{
				"multi_match": map[string]any{
					"query":  query,
					"fields": []string{"title", "content"},
				},
			},
			"sort": []any{
				map[string]any{"created_at": map[string]any{"order": "desc"}},
			},
		}
	} else {
		body = map[string]any{
			"query": map[string]any{
				"match_all": map[string]any{},
			},
			"sort": []any{
				map[string]any{"created_at": map[string]any{"order": "desc"}},
			},
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("search articles: %s", res.String())
	}

	var response struct {
		Hits struct {
			Hits []struct {
				ID     string `json:"_id"`
				Source struct {
					Title       string          `json:"title"`
					Content     string          `json:"content"`
					ContentJSON json.RawMessage `json:"content_json"`
					CreatedAt   time.Time       `json:"created_at"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		article := domain.Article{
			ID:        hit.ID,
			Title:     hit.Source.Title,
			Content:   hit.Source.Content,
			CreatedAt: hit.Source.CreatedAt,
		}
		if query == "" {
			article.ContentJSON = hit.Source.ContentJSON
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// GetByID fetches one article's title and rich-text document.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	res, err := s.client.Get(s.index, id,
		s.client.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 {
		return nil, domain.Errorf(domain.ENotFound, "article not found")
	}
	if res.IsError() {
		return nil, fmt.Errorf("get article: %s", res.String())
	}

	var response struct {
		ID     string `json:"_id"`
		Source struct {
			Title       string          `json:"title"`
			ContentJSON json.RawMessage `json:"content_json"`
		} `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, err
	}

	return &domain.Article{
		ID:          response.ID,
		Title:       response.Source.Title,
		ContentJSON: response.Source.ContentJSON,
	}, nil
}

// ExtractText walks a rich-text document tree and concatenates its text
// leaves. Nodes are either objects with a "text" leaf or a "content"
// child list, or lists of such nodes.
func ExtractText(node any) string {
	switch v := node.(type) {
	case map[string]any:
		if text, ok := v["text"].(string); ok {
			return text
		}
		if content, ok := v["content"]; ok {
			return ExtractText(content)
		}
	case []any:
		parts := make([]string, 0, len(v))
		for _, child := range v {
			if text := ExtractText(child); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}
