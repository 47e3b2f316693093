package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/persistence/models"
)

// CompanyRepository persists ProfilePayload records (spec §4.8).
type CompanyRepository struct {
	db *bun.DB
}

func NewCompanyRepository(db *bun.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// ExistsBySlug backs the company pipeline's existence-check phase
// (spec §4.2): with force_update=true the caller re-researches and
// updates; otherwise the workflow exits reporting `exists`.
func (r *CompanyRepository) ExistsBySlug(ctx context.Context, app, slug string) (uuid.UUID, bool, error) {
	m := new(models.CompanyModel)
	err := r.db.NewSelect().
		Model(m).
		Column("id").
		Where("c.app = ? AND c.slug = ? AND c.deleted_at IS NULL", app, slug).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return m.ID, true, nil
}

// Upsert performs the atomic commit for a company profile, keyed by
// (app, slug) for idempotent re-delivery (spec §4.8).
func (r *CompanyRepository) Upsert(ctx context.Context, app string, payload *domain.ProfilePayload, forceUpdate bool) (UpsertResult, error) {
	var result UpsertResult

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext(?))", app+"/"+payload.Slug); err != nil {
			return err
		}

		row := models.FromProfilePayload(payload)
		row.App = app

		existing := new(models.CompanyModel)
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
					return domain.Business(domain.CodeSlugConflict, "company slug already exists for app "+app)
				}
				return err
			}
			result = UpsertResult{ID: row.ID, Outcome: OutcomeCreated}
		case err != nil:
			return err
		case !forceUpdate:
			result = UpsertResult{ID: existing.ID, Outcome: OutcomeConflict}
			return domain.Business(domain.CodeSlugConflict, "company slug already exists for app "+app+" and force_update is false")
		default:
			row.ID = existing.ID
			row.touchTimestamps(false)
			if _, err := tx.NewUpdate().Model(row).WherePK().ExcludeColumn("created_at").Exec(ctx); err != nil {
				return err
			}
			result = UpsertResult{ID: row.ID, Outcome: OutcomeUpdated}
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// SetGraphID writes the graph_id back after a successful graph_upsert
// (spec §4.9).
func (r *CompanyRepository) SetGraphID(ctx context.Context, id uuid.UUID, graphID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.CompanyModel)(nil)).
		Set("graph_id = ?", graphID).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// Delete is the compensating delete for cancelled or unwound runs.
func (r *CompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.NewDelete().Model((*models.CompanyModel)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

// FindBySlugForLinking loads the (id, legal_name, domain, slug) fields
// the entity linker needs for exact-slug/fuzzy-name/domain-match
// resolution (spec §4.7), without paying for the full payload column.
func (r *CompanyRepository) FindBySlugForLinking(ctx context.Context, app string) ([]LinkCandidate, error) {
	var rows []models.CompanyModel
	err := r.db.NewSelect().
		Model(&rows).
		Column("id", "legal_name", "domain", "slug").
		Where("app = ? AND deleted_at IS NULL", app).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LinkCandidate, 0, len(rows))
	for _, row := range rows {
		out = append(out, LinkCandidate{ID: row.ID, LegalName: row.LegalName, Domain: row.Domain, Slug: row.Slug})
	}
	return out, nil
}

// LinkCandidate is the minimal projection the entity linker needs to
// resolve a mention to a company id (spec §4.7).
type LinkCandidate struct {
	ID        uuid.UUID
	LegalName string
	Domain    string
	Slug      string
}

// PendingGraphSyncRow identifies one company awaiting a graph sync
// retry, alongside the fields GraphSync.SyncCompany needs.
type PendingGraphSyncRow struct {
	ID      uuid.UUID
	App     string
	Slug    string
	Payload *domain.ProfilePayload
}

// PendingGraphSync returns up to limit companies whose graph sync soft-
// skipped (graph_id still nil), for the reconciliation pass (spec §4.9)
// to retry. Oldest-first so a backlog drains in FIFO order across runs.
func (r *CompanyRepository) PendingGraphSync(ctx context.Context, limit int) ([]PendingGraphSyncRow, error) {
	var rows []*models.CompanyModel
	err := r.db.NewSelect().
		Model(&rows).
		Where("c.graph_id IS NULL AND c.deleted_at IS NULL").
		OrderExpr("c.created_at ASC").
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
			Payload: models.ToProfilePayload(row),
		})
	}
	return out, nil
}
