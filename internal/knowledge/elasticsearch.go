package knowledge

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchConfig describes the cluster holding the embedded documents.
type ElasticsearchConfig struct {
	Scheme      string
	Host        string
	Port        int
	User        string
	Password    string
	VerifyCerts bool
	MaxRetries  int
	Index       string
	// Addresses overrides Scheme/Host/Port when set.
	Addresses []string
}

// ElasticsearchStore runs approximate kNN search against a dense_vector field.
type ElasticsearchStore struct {
	client *elasticsearch.Client
	index  string
	field  string
}

func NewElasticsearchStore(cfg ElasticsearchConfig) (*ElasticsearchStore, error) {
	addrs := cfg.Addresses
	if len(addrs) == 0 {
		addrs = []string{fmt.Sprintf("%s://%s:%d", cfg.Scheme, cfg.Host, cfg.Port)}
	}
	esCfg := elasticsearch.Config{
		Addresses:  addrs,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.User != "" {
		esCfg.Username = cfg.User
		esCfg.Password = cfg.Password
	}
	if !cfg.VerifyCerts {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // #nosec G402 - operator disabled cert verification
			},
		}
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch.NewClient: %w", err)
	}
	return &ElasticsearchStore{client: client, index: cfg.Index, field: "embedding"}, nil
}

func (s *ElasticsearchStore) Search(ctx context.Context, embedding []float32, k int) ([]Passage, error) {
	body := map[string]interface{}{
		"size": k,
		"knn": map[string]interface{}{
			"field":          s.field,
			"query_vector":   embedding,
			"k":              k,
			"num_candidates": max(k*10, 100),
		},
		"_source": []string{"content", "metadata"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(bodyBytes)),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	var raw searchResponse
	if err := decodeBody(res.Body, res.StatusCode, &raw); err != nil {
		return nil, err
	}

	passages := make([]Passage, 0, len(raw.Hits.Hits))
	for _, h := range raw.Hits.Hits {
		passages = append(passages, Passage{
			ID:         h.ID,
			Content:    h.Source.Content,
			Similarity: h.Score,
			Metadata:   h.Source.Metadata,
		})
	}
	return passages, nil
}

// Ping checks the cluster is reachable.
func (s *ElasticsearchStore) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("ping error: %s", res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				Content  string         `json:"content"`
				Metadata map[string]any `json:"metadata"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeBody(r io.Reader, status int, out any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if status >= 400 {
		var envelope struct {
			Error json.RawMessage `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil && len(envelope.Error) > 0 {
			return fmt.Errorf("elasticsearch error [%d]: %s", status, strings.TrimSpace(string(envelope.Error)))
		}
		return fmt.Errorf("elasticsearch error: %d %s", status, http.StatusText(status))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ Store = (*ElasticsearchStore)(nil)
