// internal/common/database/neo4j.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"gias-workers/internal/common/config"
	"gias-workers/internal/common/errors"
	"gias-workers/internal/common/logger"
	"gias-workers/internal/common/observability"
)

// Neo4jClient wraps the Bolt driver and is the only place that touches
// sessions, transactions, and transient-error retries. Callers get rows back
// as []map[string]interface{}, one map per record.
type Neo4jClient struct {
	driver neo4j.DriverWithContext
	cfg    config.GraphConfig
	logger logger.Logger
	obs    *observability.Observability
}

// NewNeo4j creates a new Neo4j client. Connection and pool-acquisition
// timeouts are set on the driver so a dead broker fails fast instead of
// hanging on a Bolt socket. obs may be nil.
func NewNeo4j(cfg config.GraphConfig, log logger.Logger, obs *observability.Observability) (*Neo4jClient, error) {
	auth := neo4j.NoAuth()
	if cfg.User != "" {
		auth = neo4j.BasicAuth(cfg.User, cfg.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4jconfig.Config) {
		c.SocketConnectTimeout = time.Duration(cfg.ConnectionTimeout) * time.Second
		c.ConnectionAcquisitionTimeout = time.Duration(cfg.AcquisitionTimeout) * time.Second
	})
	if err != nil {
		return nil, errors.NewGraphConnectionFailedError(err)
	}

	return &Neo4jClient{
		driver: driver,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "neo4j"}),
		obs:    obs,
	}, nil
}

// Ping verifies connectivity to the graph store.
func (c *Neo4jClient) Ping(ctx context.Context) error {
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return errors.NewGraphConnectionFailedError(err)
	}
	return nil
}

// Close releases the underlying driver and its connection pool.
func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Read runs a read-only query and returns one map per record.
func (c *Neo4jClient) Read(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error) {
	return c.run(ctx, cypher, params, neo4j.AccessModeRead)
}

// Write runs a mutating query and returns one map per record.
func (c *Neo4jClient) Write(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error) {
	return c.run(ctx, cypher, params, neo4j.AccessModeWrite)
}

func (c *Neo4jClient) run(ctx context.Context, cypher string, params map[string]interface{}, mode neo4j.AccessMode) ([]map[string]interface{}, error) {
	queryCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.QueryTimeout)*time.Second)
	defer cancel()

	queryType := "read"
	if mode == neo4j.AccessModeWrite {
		queryType = "write"
	}
	start := time.Now()

	work := func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(queryCtx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(queryCtx)
		if err != nil {
			return nil, err
		}
		rows := make([]map[string]interface{}, 0, len(records))
		for _, rec := range records {
			rows = append(rows, rec.AsMap())
		}
		return rows, nil
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		session := c.driver.NewSession(queryCtx, neo4j.SessionConfig{
			AccessMode:   mode,
			DatabaseName: c.cfg.Database,
			FetchSize:    c.cfg.FetchSize,
		})

		var out interface{}
		var err error
		if mode == neo4j.AccessModeWrite {
			out, err = session.ExecuteWrite(queryCtx, work)
		} else {
			out, err = session.ExecuteRead(queryCtx, work)
		}
		_ = session.Close(queryCtx)

		if err == nil {
			c.obs.RecordGraphQuery(ctx, queryType, "success", time.Since(start))
			return out.([]map[string]interface{}), nil
		}
		lastErr = err

		if queryCtx.Err() == context.DeadlineExceeded {
			c.obs.RecordGraphQuery(ctx, queryType, "timeout", time.Since(start))
			return nil, errors.NewGraphQueryTimeoutError(firstLine(cypher))
		}
		if !neo4j.IsRetryable(err) || attempt == c.cfg.MaxRetries {
			break
		}

		c.logger.Warn("transient graph error, retrying", map[string]interface{}{
			"attempt": attempt + 1,
			"max":     c.cfg.MaxRetries,
			"error":   err.Error(),
		})
		select {
		case <-time.After(time.Duration(c.cfg.RetryBackoffMs) * time.Millisecond * time.Duration(attempt+1)):
		case <-ctx.Done():
			c.obs.RecordGraphQuery(ctx, queryType, "timeout", time.Since(start))
			return nil, errors.NewGraphQueryTimeoutError(firstLine(cypher))
		}
	}

	c.obs.RecordGraphQuery(ctx, queryType, "error", time.Since(start))
	return nil, errors.NewStorageError(firstLine(cypher), lastErr)
}

// EnsureVectorIndex creates the named vector index when missing, dropping and
// recreating it when the stored dimensions differ from the requested ones.
func (c *Neo4jClient) EnsureVectorIndex(ctx context.Context, indexName, label, prop string, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	existing, err := c.vectorIndexDimensions(ctx, indexName)
	if err != nil {
		// SHOW INDEXES can fail on restricted users; fall through to
		// CREATE IF NOT EXISTS which is safe either way.
		c.logger.Warn("could not inspect existing vector index", map[string]interface{}{
			"index": indexName,
			"error": err.Error(),
		})
	} else if existing > 0 && existing != dimensions {
		c.logger.Warn("vector index dimension mismatch, recreating", map[string]interface{}{
			"index":    indexName,
			"existing": existing,
			"want":     dimensions,
		})
		if _, err := c.Write(ctx, fmt.Sprintf("DROP INDEX %s IF EXISTS", indexName), nil); err != nil {
			return err
		}
	}

	cypher := fmt.Sprintf(`
		CREATE VECTOR INDEX %s IF NOT EXISTS
		FOR (n:%s) ON (n.%s)
		OPTIONS {
		  indexConfig: {
		    `+"`vector.dimensions`"+`: %d,
		    `+"`vector.similarity_function`"+`: 'cosine'
		  }
		}`, indexName, label, prop, dimensions)
	if _, err := c.Write(ctx, cypher, nil); err != nil {
		return err
	}

	return c.awaitIndexOnline(ctx, indexName)
}

// VectorQueryNodes runs db.index.vector.queryNodes against the given index
// and returns name, description, score, and node id per hit.
func (c *Neo4jClient) VectorQueryNodes(ctx context.Context, indexName string, vector []float64, topK int, minScore float64) ([]map[string]interface{}, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, nil
	}

	cypher := `
		CALL db.index.vector.queryNodes($index_name, $top_k, $vector)
		YIELD node, score
		WHERE score >= $min_score
		RETURN node.name AS name,
		       node.description AS description,
		       score AS score,
		       elementId(node) AS id
		ORDER BY score DESC`
	return c.Read(ctx, cypher, map[string]interface{}{
		"index_name": indexName,
		"top_k":      topK,
		"vector":     vector,
		"min_score":  minScore,
	})
}

func (c *Neo4jClient) vectorIndexDimensions(ctx context.Context, indexName string) (int, error) {
	rows, err := c.Read(ctx, `
		SHOW INDEXES
		YIELD name, options
		WHERE name = $name
		RETURN options`, map[string]interface{}{"name": indexName})
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	options, _ := rows[0]["options"].(map[string]interface{})
	indexConfig, _ := options["indexConfig"].(map[string]interface{})
	switch dim := indexConfig["vector.dimensions"].(type) {
	case int64:
		return int(dim), nil
	case float64:
		return int(dim), nil
	default:
		return 0, nil
	}
}

// awaitIndexOnline blocks until the index reports ONLINE. Querying a vector
// index before it is online silently returns zero matches.
func (c *Neo4jClient) awaitIndexOnline(ctx context.Context, indexName string) error {
	if _, err := c.Read(ctx, "CALL db.awaitIndex($n)", map[string]interface{}{"n": indexName}); err == nil {
		return nil
	}

	for i := 0; i < 30; i++ {
		rows, err := c.Read(ctx, `
			SHOW INDEXES
			YIELD name, state
			WHERE name = $name
			RETURN state`, map[string]interface{}{"name": indexName})
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			if state, ok := rows[0]["state"].(string); ok && state == "ONLINE" {
				return nil
			}
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("index %s did not come online", indexName)
}

func firstLine(cypher string) string {
	for i := 0; i < len(cypher); i++ {
		if cypher[i] == '\n' {
			return cypher[:i]
		}
	}
	return cypher
}
