// Package search mirrors shortlist entries into Elasticsearch for free-text lookup.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"talent-shortlist/internal/common/logger"
	"talent-shortlist/internal/models"
	"talent-shortlist/internal/shortlist"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrIndexFailed  = errors.New("SEARCH_INDEX_UPDATE_FAILED")
	ErrSearchFailed = errors.New("SEARCH_FAILED")
)

// Indexer is a shortlist.Notifier that keeps one document per entry, keyed by
// entry id. The store stays the source of truth; the index may lag or be rebuilt.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	log    logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = "shortlist"
	}
	return &Indexer{
		client: client,
		index:  index,
		log:    log.WithFields(map[string]interface{}{"component": "search-indexer", "index": index}),
	}
}

func (i *Indexer) Notify(ctx context.Context, event shortlist.ChangeEvent) error {
	switch event.Type {
	case shortlist.EventAdded:
		if event.Entry == nil {
			return nil
		}
		return i.put(ctx, *event.Entry)
	case shortlist.EventRemoved:
		return i.delete(ctx, event.EntryID)
	default:
		return nil
	}
}

// Reindex writes every entry. Used at startup to repair drift.
func (i *Indexer) Reindex(ctx context.Context, entries []models.CandidateRecord) error {
	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		if err := i.put(ctx, e); err != nil {
			return err
		}
	}
	i.log.Info("Shortlist reindexed", map[string]interface{}{"count": len(entries)})
	return nil
}

func (i *Indexer) put(ctx context.Context, entry models.CandidateRecord) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrIndexFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: entry.ID.String(),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.String())
	}
	return nil
}

func (i *Indexer) delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	req := esapi.DeleteRequest{Index: i.index, DocumentID: id}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrIndexFailed, res.String())
	}
	return nil
}

// Search runs a multi_match over the text fields of indexed entries.
func (i *Indexer) Search(ctx context.Context, text string, size int) ([]models.CandidateRecord, error) {
	if size <= 0 {
		size = 20
	}
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  text,
				"fields": []string{"name^3", "email^2", "skills^2", "applicationLabel", "summary", "shortlistedFrom"},
				"type":   "best_fields",
			},
		},
	}
	body, _ := json.Marshal(query)

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source models.CandidateRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrSearchFailed, err)
	}

	out := make([]models.CandidateRecord, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
