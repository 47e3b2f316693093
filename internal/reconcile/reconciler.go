// Package reconcile implements spec §4.9's reconciliation pass: a
// scheduled sweep that retries graph syncs that soft-skipped during a
// normal pipeline run (the article/company main record committed, but
// the graph_upsert call failed and left graph_id nil). Grounded on the
// teacher's own scheduled-trigger mechanism
// (backend/internal/application/trigger/cron_scheduler.go), generalized
// from "fire a workflow on a schedule" to "retry a bounded backlog of
// pending graph syncs on a schedule".
package reconcile

import (
	"context"

	"github.com/Londondannyboy/quest-sub002/internal/logger"
	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/persistence/repository"
)

// Reconciler retries graph syncs for articles and companies whose
// graph_id is still nil, in bounded batches per pass.
type Reconciler struct {
	articles  *repository.ArticleRepository
	companies *repository.CompanyRepository
	graphSync *persistence.GraphSync
	batchSize int
	log       *logger.Logger
}

// NewReconciler builds a Reconciler. batchSize bounds how many pending
// records of each kind are retried per Run call, so one slow pass can't
// monopolize the graph adapter's rate limit.
func NewReconciler(coordinator *persistence.Coordinator, graphSync *persistence.GraphSync, batchSize int, log *logger.Logger) *Reconciler {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Reconciler{
		articles:  coordinator.Articles(),
		companies: coordinator.Companies(),
		graphSync: graphSync,
		batchSize: batchSize,
		log:       log,
	}
}

// Result summarizes one reconciliation pass.
type Result struct {
	ArticlesAttempted  int
	ArticlesSynced     int
	CompaniesAttempted int
	CompaniesSynced    int
}

// Run scans both repositories' pending-graph-sync backlogs and retries
// each one once. A record that fails again simply stays pending for the
// next scheduled pass — reconciliation never escalates a soft-skip into
// a hard failure (spec §4.9).
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	var result Result

	articles, err := r.articles.PendingGraphSync(ctx, r.batchSize)
	if err != nil {
		return result, err
	}
	result.ArticlesAttempted = len(articles)
	for _, a := range articles {
		if err := r.graphSync.SyncArticle(ctx, a.ID.String(), a.App, a.Slug, a.Payload.MarkdownBody, nil); err != nil {
			r.log.Warn("reconcile: article graph sync still failing", "article_id", a.ID.String(), "error", err)
			continue
		}
		result.ArticlesSynced++
	}

	companies, err := r.companies.PendingGraphSync(ctx, r.batchSize)
	if err != nil {
		return result, err
	}
	result.CompaniesAttempted = len(companies)
	for _, c := range companies {
		episodeText := c.Payload.LegalName
		for _, sec := range c.Payload.OrderedSections() {
			episodeText += "\n\n" + sec.MarkdownContent
		}
		if err := r.graphSync.SyncCompany(ctx, c.ID.String(), c.App, c.Slug, episodeText, nil); err != nil {
			r.log.Warn("reconcile: company graph sync still failing", "company_id", c.ID.String(), "error", err)
			continue
		}
		result.CompaniesSynced++
	}

	if result.ArticlesAttempted > 0 || result.CompaniesAttempted > 0 {
		r.log.Info("reconcile: graph sync pass complete",
			"articles_attempted", result.ArticlesAttempted, "articles_synced", result.ArticlesSynced,
			"companies_attempted", result.CompaniesAttempted, "companies_synced", result.CompaniesSynced)
	}
	return result, nil
}
