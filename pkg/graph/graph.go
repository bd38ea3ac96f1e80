// Package graph records verdicts as a URL/domain graph so that campaigns
// sharing infrastructure or redirect chains can be explored later.
package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"phishjudge/pkg/common"
	"phishjudge/pkg/logger"
)

// Observation is one judged URL.
type Observation struct {
	ID          string
	URL         string
	Label       string
	Probability float64
	Tier        string
	CheckedAt   time.Time
	// Redirects are the intermediate hop URLs, in order.
	Redirects []string
}

type Recorder interface {
	Record(ctx context.Context, obs Observation) error
	Close(ctx context.Context) error
}

// Nop discards observations.
type Nop struct{}

func (Nop) Record(context.Context, Observation) error { return nil }
func (Nop) Close(context.Context) error               { return nil }

type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jRecorder writes observations with MERGE so repeated checks update the
// same nodes.
type Neo4jRecorder struct {
	driver   neo4j.DriverWithContext
	database string
	log      logger.Logger
}

const recordQuery = `
MERGE (u:URL {url: $url})
SET u.label = $label, u.probability = $probability, u.tier = $tier,
    u.checked_at = $checked_at, u.last_check = $id
MERGE (d:Domain {name: $domain})
MERGE (u)-[:HOSTED_ON]->(d)
WITH u
UNWIND $hops AS hop
MERGE (h:URL {url: hop.url})
MERGE (hd:Domain {name: hop.domain})
MERGE (h)-[:HOSTED_ON]->(hd)
MERGE (h)-[r:REDIRECTS_TO {position: hop.position}]->(u)
`

// NewNeo4j connects and verifies connectivity.
func NewNeo4j(ctx context.Context, cfg Config, log logger.Logger) (*Neo4jRecorder, error) {
	if log == nil {
		log = logger.NewNop()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j: %w", err)
	}
	log.Info("graph recorder connected", logger.String("uri", cfg.URI), logger.String("database", cfg.Database))
	return &Neo4jRecorder{driver: driver, database: cfg.Database, log: log}, nil
}

func (r *Neo4jRecorder) Record(ctx context.Context, obs Observation) error {
	_, err := neo4j.ExecuteQuery(ctx, r.driver, recordQuery, params(obs),
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(r.database),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", obs.URL, err)
	}
	return nil
}

func (r *Neo4jRecorder) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// params flattens an observation into query parameters. Hop positions count
// back from the final URL, starting at 1 for the first hop.
func params(obs Observation) map[string]any {
	hops := make([]any, 0, len(obs.Redirects))
	for i, h := range obs.Redirects {
		hops = append(hops, map[string]any{
			"url":      h,
			"domain":   domainOf(h),
			"position": i + 1,
		})
	}
	return map[string]any{
		"id":          obs.ID,
		"url":         obs.URL,
		"domain":      domainOf(obs.URL),
		"label":       obs.Label,
		"probability": obs.Probability,
		"tier":        obs.Tier,
		"checked_at":  obs.CheckedAt.UTC().Format(time.RFC3339),
		"hops":        hops,
	}
}

func domainOf(rawURL string) string {
	host := common.Hostname(rawURL)
	if host == "" {
		return "unknown"
	}
	return strings.TrimSuffix(host, ".")
}
