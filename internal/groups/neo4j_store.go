package groups

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v6/neo4j"

	"github.com/vecthare/vecthare/internal/types"
)

// Neo4jLinkStore is the durable alternative to InMemoryLinkStore for
// deployments where the chunk-link graph outgrows what fits in a single
// ChunkMeta.Links slice — e.g. a shared lorebook whose link graph is
// maintained outside the retrieval pipeline entirely. Nothing in the
// teacher repo exercises neo4j beyond an engine-presence check
// (getGraphDatabaseEngine), so this adapter follows the driver package's
// own idiomatic ExecuteQuery shape rather than an existing call site.
type Neo4jLinkStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jLinkStore wraps an already-constructed driver. database is the
// target Neo4j database name ("neo4j" for the default single-db setup).
func NewNeo4jLinkStore(driver neo4j.DriverWithContext, database string) *Neo4jLinkStore {
	return &Neo4jLinkStore{driver: driver, database: database}
}

// Links fetches a chunk hash's outgoing (:Chunk)-[:LINKS]->(:Chunk) edges.
func (s *Neo4jLinkStore) Links(ctx context.Context, source types.ContentHash) ([]types.ChunkLink, error) {
	const cypher = `
MATCH (c:Chunk {hash: $hash})-[l:LINKS]->(t:Chunk)
RETURN t.hash AS target, l.type AS type, l.weight AS weight
`
	result, err := neo4j.ExecuteQuery(ctx, s.driver, cypher,
		map[string]any{"hash": int64(source)},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
	)
	if err != nil {
		return nil, fmt.Errorf("groups: neo4j links query: %w", err)
	}

	links := make([]types.ChunkLink, 0, len(result.Records))
	for _, rec := range result.Records {
		hash, _, err := neo4j.GetRecordValue[int64](rec, "target")
		if err != nil {
			return nil, fmt.Errorf("groups: neo4j record target: %w", err)
		}
		linkType, _, err := neo4j.GetRecordValue[string](rec, "type")
		if err != nil {
			return nil, fmt.Errorf("groups: neo4j record type: %w", err)
		}
		weight, _, err := neo4j.GetRecordValue[float64](rec, "weight")
		if err != nil {
			return nil, fmt.Errorf("groups: neo4j record weight: %w", err)
		}
		links = append(links, types.ChunkLink{
			Target: types.ContentHash(hash),
			Type:   types.LinkType(linkType),
			Weight: weight,
		})
	}
	return links, nil
}

// PutLink upserts one (source)-[:LINKS]->(target) edge, setting its type
// and weight.
func (s *Neo4jLinkStore) PutLink(ctx context.Context, source types.ContentHash, link types.ChunkLink) error {
	const cypher = `
MERGE (c:Chunk {hash: $source})
MERGE (t:Chunk {hash: $target})
MERGE (c)-[l:LINKS]->(t)
SET l.type = $type, l.weight = $weight
`
	_, err := neo4j.ExecuteQuery(ctx, s.driver, cypher,
		map[string]any{
			"source": int64(source),
			"target": int64(link.Target),
			"type":   string(link.Type),
			"weight": link.Weight,
		},
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
	)
	if err != nil {
		return fmt.Errorf("groups: neo4j put link: %w", err)
	}
	return nil
}
