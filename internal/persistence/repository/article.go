// Package repository implements the persistence coordinator's storage
// access (spec §4.8): atomic commits across the main record, the
// article↔company junction table, and the per-image columns, guarded by
// per-slug advisory locks and keyed for idempotent re-delivery.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/persistence/models"
)

// UpsertOutcome mirrors the store_upsert activity's {created|updated|conflict}
// result (spec §6).
type UpsertOutcome string

const (
	OutcomeCreated  UpsertOutcome = "created"
	OutcomeUpdated  UpsertOutcome = "updated"
	OutcomeConflict UpsertOutcome = "conflict"
)

// UpsertResult is what the persistence coordinator hands back to the
// calling workflow after a commit attempt.
type UpsertResult struct {
	ID      uuid.UUID
	Outcome UpsertOutcome
}

// ArticleRepository persists ArticlePayload records and their resolved
// company mentions.
type ArticleRepository struct {
	db *bun.DB
}

func NewArticleRepository(db *bun.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// ExistsBySlug backs the existence-check phase (spec §4.2 existence
// check for company pipeline parity, and article dedupe check). Reads
// are lock-free per spec §5's store notes.
func (r *ArticleRepository) ExistsBySlug(ctx context.Context, app, slug string) (uuid.UUID, bool, error) {
	m := new(models.ArticleModel)
	err := r.db.NewSelect().
		Model(m).
		Column("id").
		Where("a.app = ? AND a.slug = ? AND a.deleted_at IS NULL", app, slug).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return m.ID, true, nil
}

// Upsert performs the atomic commit described in spec §4.8: main record
// plus junction rows in one transaction, keyed by (app, slug) so
// re-delivery of the same workflow is safe. Without force_update, a
// pre-existing (app, slug) yields OutcomeConflict and no mutation
// (spec's insert-if-absent race rule — the loser reports slug-conflict).
func (r *ArticleRepository) Upsert(ctx context.Context, app string, payload *domain.ArticlePayload, forceUpdate bool) (UpsertResult, error) {
	var result UpsertResult

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", app+"/"+payload.Slug); err != nil {
			return err
		}

		row := models.FromArticlePayload(payload)
		row.App = app

		existing := new(models.ArticleModel)
		err := tx.NewSelect().Model(existing).Column("id").
			Where("app = ? AND slug = ? AND deleted_at IS NULL", app, payload.Slug).
			Scan(ctx)
		switch {
		case err == sql.ErrNoRows:
			row.ID = uuid.New()
			row.touchTimestamps(true)
			if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
				if isUniqueViolation(err) {
					result = UpsertResult{Outcome: OutcomeConflict}
					return domain.Business(domain.CodeSlugConflict, "article slug already exists for app "+app)
				}
				return err
			}
			result = UpsertResult{ID: row.ID, Outcome: OutcomeCreated}
		case err != nil:
			return err
		case !forceUpdate:
			result = UpsertResult{ID: existing.ID, Outcome: OutcomeConflict}
			return domain.Business(domain.CodeSlugConflict, "article slug already exists for app "+app+" and force_update is false")
		default:
			row.ID = existing.ID
			row.touchTimestamps(false)
			if _, err := tx.NewUpdate().Model(row).WherePK().ExcludeColumn("created_at").Exec(ctx); err != nil {
				return err
			}
			result = UpsertResult{ID: row.ID, Outcome: OutcomeUpdated}
		}

		if _, err := tx.NewDelete().
			Model((*models.ArticleCompanyModel)(nil)).
			Where("article_id = ?", row.ID).
			Exec(ctx); err != nil {
			return err
		}
		for _, m := range payload.MentionedCompanies {
			companyID, err := uuid.Parse(m.CompanyID)
			if err != nil {
				continue // unresolved candidates never reach here; defensive only
			}
			junction := &models.ArticleCompanyModel{ArticleID: row.ID, CompanyID: companyID, Relevance: m.Relevance}
			if _, err := tx.NewInsert().Model(junction).Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// PendingGraphSyncRow identifies one article awaiting a graph sync retry,
// alongside the fields GraphSync.SyncArticle needs.
type PendingGraphSyncRow struct {
	ID      uuid.UUID
	App     string
	Slug    string
	Payload *domain.ArticlePayload
}

// PendingGraphSync returns up to limit articles whose graph sync soft-
// skipped (graph_id still nil), for the reconciliation pass (spec §4.9)
// to retry. Oldest-first so a backlog drains in FIFO order across runs.
func (r *ArticleRepository) PendingGraphSync(ctx context.Context, limit int) ([]PendingGraphSyncRow, error) {
	var rows []*models.ArticleModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("a.graph_id IS NULL AND a.deleted_at IS NULL").
		OrderExpr("a.created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PendingGraphSyncRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, PendingGraphSyncRow{
			ID:      row.ID,
			App:     row.App,
			Slug:    row.Slug,
			Payload: models.ToArticlePayload(row),
		})
	}
	return out, nil
}

// SetGraphID writes the graph_id back onto the main record after a
// successful graph_upsert (spec §4.9) — never called before sync succeeds.
func (r *ArticleRepository) SetGraphID(ctx context.Context, id uuid.UUID, graphID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.ArticleModel)(nil)).
		Set("graph_id = ?", graphID).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// Delete is the compensating delete used when a workflow is cancelled
// after commit, or when the coordinator's caller decides to unwind a
// partially-completed run (spec §2, Cancellation).
func (r *ArticleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().Model((*models.ArticleModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func isUniqueViolation(err error) bool {
	pgErr, ok := err.(pgdriver.Error)
	if !ok {
		return false
	}
	return pgErr.Field('C') == "23505"
}
