// internal/common/database/elasticsearch.go
package database

import (
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"jobmatch-engine/internal/common/config"
)

// ESClient wraps the Elasticsearch client used by the job catalog.
type ESClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearchClient creates a new Elasticsearch client.
func NewElasticsearchClient(cfg config.ElasticsearchConfig) (*ESClient, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ESClient{Client: es}, nil
}

// Ping tests the cluster connection.
func (c *ESClient) Ping() error {
	res, err := c.Client.Ping()
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping returned status %s", res.Status())
	}
	return nil
}
