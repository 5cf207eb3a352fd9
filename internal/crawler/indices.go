package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nao1215/hostmap/internal/model"
)

// Sentinel errors for index resolution.
var (
	// ErrIndexNotFound is returned when a requested index ID is not in
	// the index list.
	ErrIndexNotFound = errors.New("crawler: index not found")

	// ErrNoIndexes is returned when the index list is empty.
	ErrNoIndexes = errors.New("crawler: no indexes available")
)

// Indices fetches the list of crawl indexes and returns it sorted newest
// first.
func (c *Client) Indices(ctx context.Context) ([]model.Index, error) {
	body, err := c.get(ctx, c.collinfoURL, "")
	if err != nil {
		return nil, fmt.Errorf("fetch index list: %w", err)
	}

	var indexes []model.Index
	if err := json.Unmarshal(body, &indexes); err != nil {
		return nil, fmt.Errorf("parse index list: %w", err)
	}
	if len(indexes) == 0 {
		return nil, ErrNoIndexes
	}

	model.SortIndexesNewestFirst(indexes)
	return indexes, nil
}

// LatestIndex returns the most recent crawl index.
func (c *Client) LatestIndex(ctx context.Context) (model.Index, error) {
	indexes, err := c.Indices(ctx)
	if err != nil {
		return model.Index{}, err
	}
	return indexes[0], nil
}

// FindIndex returns the index with the given ID, or ErrIndexNotFound.
func (c *Client) FindIndex(ctx context.Context, id string) (model.Index, error) {
	indexes, err := c.Indices(ctx)
	if err != nil {
		return model.Index{}, err
	}
	for _, index := range indexes {
		if index.ID == id {
			return index, nil
		}
	}
	return model.Index{}, fmt.Errorf("%w: %s", ErrIndexNotFound, id)
}
