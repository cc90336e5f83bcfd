// Package graph mirrors engagement relationships into FalkorDB. The graph
// is a secondary index for future recommendation work: the relational store
// stays authoritative, and mirror failures must never fail a request.
package graph

import (
	"fmt"

	falkordb "github.com/FalkorDB/falkordb-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hollowmoss/keepsake/pkg/models"
)

// Mirror writes post nodes and engagement edges to a FalkorDB graph.
type Mirror struct {
	graph  *falkordb.Graph
	logger zerolog.Logger
}

// NewMirror connects to FalkorDB and selects the named graph.
func NewMirror(addr, graphName string) (*Mirror, error) {
	db, err := falkordb.FalkorDBNew(&falkordb.ConnectionOption{Addr: addr})
	if err != nil {
		return nil, fmt.Errorf("connect falkordb %s: %w", addr, err)
	}
	return &Mirror{
		graph:  db.SelectGraph(graphName),
		logger: log.With().Str("component", "graph").Logger(),
	}, nil
}

// UpsertPost creates or refreshes the post's node.
func (m *Mirror) UpsertPost(post *models.Post) error {
	_, err := m.graph.Query(
		"MERGE (p:Post {id: $id}) SET p.score = $score, p.rating = $rating",
		map[string]interface{}{
			"id":     post.ID,
			"score":  post.Score,
			"rating": string(post.Rating),
		}, nil)
	if err != nil {
		return fmt.Errorf("upsert post node %d: %w", post.ID, err)
	}
	return nil
}

// RecordReaction mirrors the user's current reaction as a REACTED edge.
// Clearing the reaction removes the edge.
func (m *Mirror) RecordReaction(userID int64, ref models.TargetRef, reaction models.ReactionType) error {
	label, err := nodeLabel(ref.Type)
	if err != nil {
		return err
	}
	targetID, err := ref.NumericID()
	if err != nil {
		return fmt.Errorf("parse %s id: %w", ref.Type, err)
	}
	params := map[string]interface{}{
		"user_id":  userID,
		"id":       targetID,
		"reaction": string(reaction),
	}

	if reaction == models.ReactionNone {
		_, err = m.graph.Query(
			fmt.Sprintf("MATCH (u:User {id: $user_id})-[r:REACTED]->(t:%s {id: $id}) DELETE r", label),
			params, nil)
	} else {
		_, err = m.graph.Query(
			fmt.Sprintf("MERGE (u:User {id: $user_id}) MERGE (t:%s {id: $id}) MERGE (u)-[r:REACTED]->(t) SET r.type = $reaction", label),
			params, nil)
	}
	if err != nil {
		return fmt.Errorf("mirror reaction %s on %s: %w", reaction, ref, err)
	}
	return nil
}

// RecordSearchClick counts a post view that came from a search results page.
func (m *Mirror) RecordSearchClick(query string, postID int64) error {
	_, err := m.graph.Query(
		"MERGE (s:Search {query: $query}) MERGE (p:Post {id: $id}) MERGE (s)-[c:CLICKED]->(p) SET c.count = coalesce(c.count, 0) + 1",
		map[string]interface{}{
			"query": query,
			"id":    postID,
		}, nil)
	if err != nil {
		return fmt.Errorf("mirror search click %q -> %d: %w", query, postID, err)
	}
	return nil
}

func nodeLabel(t models.TargetType) (string, error) {
	switch t {
	case models.TargetPost:
		return "Post", nil
	case models.TargetVault:
		return "Vault", nil
	case models.TargetComment:
		return "Comment", nil
	default:
		return "", fmt.Errorf("no graph label for target %q", t)
	}
}
