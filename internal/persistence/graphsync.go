package persistence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

// GraphSync is the P-Graph-Sync phase from spec §4.9: it derives a stable
// graph_id from (slug, app), posts a summary episode, and writes graph_id
// back onto the main record only after the upsert succeeds. Failure is a
// soft-skip — the caller records an event and proceeds, it never blocks
// persistence (spec §7's ClassDependency).
type GraphSync struct {
	graph        *adapter.GraphUpsertAdapter
	articles     graphIDWriter
	companies    graphIDWriter
}

// graphIDWriter is satisfied by *repository.ArticleRepository and
// *repository.CompanyRepository — both expose SetGraphID with the same
// shape, so GraphSync doesn't need to know which kind it's syncing.
type graphIDWriter interface {
	SetGraphID(ctx context.Context, id uuid.UUID, graphID string) error
}

func NewGraphSync(graph *adapter.GraphUpsertAdapter, articles graphIDWriter, companies graphIDWriter) *GraphSync {
	return &GraphSync{graph: graph, articles: articles, companies: companies}
}

// DeriveGraphID builds the stable (slug, app)-keyed identifier spec §4.9
// requires — deterministic so repeated syncs for the same record
// idempotently target the same graph episode.
func DeriveGraphID(app, slug string) string {
	sum := sha256.Sum256([]byte(app + "/" + slug))
	return "graph_" + hex.EncodeToString(sum[:])[:24]
}

// SyncArticle posts the episode and writes graph_id back on success.
// Summaries are bounded to 10_000 chars by the adapter itself.
func (g *GraphSync) SyncArticle(ctx context.Context, id, app, slug, episodeText string, links []string) error {
	return g.sync(ctx, g.articles, id, app, slug, episodeText, links)
}

// SyncCompany is SyncArticle's company-side counterpart.
func (g *GraphSync) SyncCompany(ctx context.Context, id, app, slug, episodeText string, links []string) error {
	return g.sync(ctx, g.companies, id, app, slug, episodeText, links)
}

func (g *GraphSync) sync(ctx context.Context, writer graphIDWriter, id, app, slug, episodeText string, links []string) error {
	graphID := DeriveGraphID(app, slug)
	resp, err := g.graph.Upsert(ctx, adapter.GraphUpsertRequest{
		GraphID:     graphID,
		EpisodeText: episodeText,
		Links:       links,
	})
	if err != nil {
		return domain.Dependency(domain.CodeUpstream5xx, "graph sync soft-skipped: "+strings.TrimSpace(err.Error()), err)
	}
	return writer.SetGraphID(ctx, mustParseUUID(id), resp.GraphID)
}
