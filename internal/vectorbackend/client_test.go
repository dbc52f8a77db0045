package vectorbackend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryMultipleSequentialIsolatesPerCollectionFailure(t *testing.T) {
	queryOne := func(_ context.Context, collectionID, _ string, _ int) ([]Hit, error) {
		if collectionID == "bad" {
			return nil, errors.New("backend unavailable")
		}
		return []Hit{{Score: 0.9}, {Score: 0.1}}, nil
	}

	results := QueryMultipleSequential(context.Background(), []string{"good", "bad"}, "query", 10, 0.5, queryOne)

	assert.NoError(t, results["good"].Err)
	assert.Len(t, results["good"].Hits, 1, "threshold filters out the 0.1 hit")
	assert.Error(t, results["bad"].Err)
	assert.Empty(t, results["bad"].Hits)
}

func TestQueryMultipleSequentialEmptyCollectionsReturnsEmptyMap(t *testing.T) {
	results := QueryMultipleSequential(context.Background(), nil, "query", 10, 0, func(context.Context, string, string, int) ([]Hit, error) {
		t.Fatal("queryOne should not be called with no collections")
		return nil, nil
	})
	assert.Empty(t, results)
}
