package graph

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"inkwell/internal/iam"
)

// RedisGraph runs Cypher queries against a RedisGraph module over the shared
// Redis connection. All parameters travel through the CYPHER prologue; the
// pattern text is constant.
type RedisGraph struct {
	client *redis.Client
	name   string
}

// NewRedisGraph binds the engine to a named graph.
func NewRedisGraph(client *redis.Client, name string) *RedisGraph {
	return &RedisGraph{client: client, name: name}
}

// query executes a parameterized Cypher query and returns the result rows.
// Write-only queries (no RETURN) come back with no rows.
func (g *RedisGraph) query(ctx context.Context, params map[string]any, q string) ([][]any, error) {
	prologue, err := cypherPrologue(params)
	if err != nil {
		return nil, err
	}

	res, err := g.client.Do(ctx, "GRAPH.QUERY", g.name, prologue+q).Result()
	if err != nil {
		return nil, fmt.Errorf("graph query: %w", err)
	}

	// Read replies are [header, rows, stats]; write replies are [stats].
	reply, ok := res.([]any)
	if !ok || len(reply) < 3 {
		return nil, nil
	}
	rawRows, ok := reply[1].([]any)
	if !ok {
		return nil, nil
	}
	rows := make([][]any, 0, len(rawRows))
	for _, raw := range rawRows {
		if cells, ok := raw.([]any); ok {
			rows = append(rows, cells)
		}
	}
	return rows, nil
}

// scalarInt extracts an integer from the first cell of the first row.
func scalarInt(rows [][]any) int64 {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0
	}
	switch v := rows[0][0].(type) {
	case int64:
		return v
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func (g *RedisGraph) IsGranted(ctx context.Context, userID int64, scope iam.Scope, access iam.Access) (bool, error) {
	rows, err := g.query(ctx, map[string]any{
		"uid":    userID,
		"scope":  string(scope),
		"access": string(access),
	}, `MATCH (u:USER {id: $uid})-[:RELATES]->(:USERGROUP)-[:ALLOWS {access: $access}]->(:SCOPE {name: $scope}) RETURN count(u)`)
	if err != nil {
		return false, err
	}
	return scalarInt(rows) > 0, nil
}

func (g *RedisGraph) ListGroups(ctx context.Context, userID int64) ([]string, error) {
	rows, err := g.query(ctx, map[string]any{"uid": userID},
		`MATCH (:USER {id: $uid})-[:RELATES]->(ug:USERGROUP) RETURN ug.name ORDER BY ug.name`)
	if err != nil {
		return nil, err
	}
	groups := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if name, ok := row[0].(string); ok {
			groups = append(groups, name)
		}
	}
	sort.Strings(groups)
	return groups, nil
}

func (g *RedisGraph) AssignGroup(ctx context.Context, userID int64, group string) error {
	// The USERGROUP is matched, not merged: assigning to an unknown group
	// matches nothing and the whole clause is a no-op.
	_, err := g.query(ctx, map[string]any{"uid": userID, "group": group},
		`MATCH (ug:USERGROUP {name: $group}) MERGE (u:USER {id: $uid}) MERGE (u)-[:RELATES]->(ug)`)
	return err
}

func (g *RedisGraph) UnassignGroup(ctx context.Context, userID int64, group string) error {
	_, err := g.query(ctx, map[string]any{"uid": userID, "group": group},
		`MATCH (:USER {id: $uid})-[r:RELATES]->(:USERGROUP {name: $group}) DELETE r`)
	return err
}

// EnsureGroup, EnsureScope and EnsureAllow implement Seeder for graph
// bootstrap; runtime request paths never call them.

func (g *RedisGraph) EnsureGroup(ctx context.Context, name string) error {
	_, err := g.query(ctx, map[string]any{"name": name}, `MERGE (:USERGROUP {name: $name})`)
	return err
}

func (g *RedisGraph) EnsureScope(ctx context.Context, name string) error {
	_, err := g.query(ctx, map[string]any{"name": name}, `MERGE (:SCOPE {name: $name})`)
	return err
}

func (g *RedisGraph) EnsureAllow(ctx context.Context, group, scope, access string) error {
	_, err := g.query(ctx, map[string]any{"group": group, "scope": scope, "access": access},
		`MATCH (ug:USERGROUP {name: $group}), (s:SCOPE {name: $scope}) MERGE (ug)-[:ALLOWS {access: $access}]->(s)`)
	return err
}
