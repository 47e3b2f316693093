package persistence

import (
	"context"
	"encoding/json"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/persistence/repository"
)

// Coordinator is the persistence coordinator from spec §4.8: it owns the
// atomic commit across the main record, junction rows, and image columns,
// and is the thing the workflow phases and the store_upsert activity both
// call through. It binds directly to the repositories rather than an
// HTTP adapter, since persistence is in-process storage, not an external
// vendor call.
type Coordinator struct {
	articles  *repository.ArticleRepository
	companies *repository.CompanyRepository
}

func NewCoordinator(articles *repository.ArticleRepository, companies *repository.CompanyRepository) *Coordinator {
	return &Coordinator{articles: articles, companies: companies}
}

// Companies exposes the company repository for read-only lookups that
// don't belong on Coordinator's own write-path API, such as the entity
// linker's candidate scan (spec §4.7).
func (c *Coordinator) Companies() *repository.CompanyRepository {
	return c.companies
}

// Articles exposes the article repository for read-only lookups outside
// Coordinator's own write-path API, such as the graph sync reconciler's
// pending-sync scan (spec §4.9).
func (c *Coordinator) Articles() *repository.ArticleRepository {
	return c.articles
}

// UpsertArticle commits an ArticlePayload, including its mentioned-company
// junction rows, keyed by (app, slug).
func (c *Coordinator) UpsertArticle(ctx context.Context, app string, payload *domain.ArticlePayload, forceUpdate bool) (repository.UpsertResult, error) {
	return c.articles.Upsert(ctx, app, payload, forceUpdate)
}

// UpsertCompany commits a ProfilePayload keyed by (app, slug).
func (c *Coordinator) UpsertCompany(ctx context.Context, app string, payload *domain.ProfilePayload, forceUpdate bool) (repository.UpsertResult, error) {
	return c.companies.Upsert(ctx, app, payload, forceUpdate)
}

// ArticleExists backs the article dedupe-check phase.
func (c *Coordinator) ArticleExists(ctx context.Context, app, slug string) (bool, error) {
	_, exists, err := c.articles.ExistsBySlug(ctx, app, slug)
	return exists, err
}

// CompanyExists backs the company pipeline's existence-check phase.
func (c *Coordinator) CompanyExists(ctx context.Context, app, slug string) (bool, error) {
	_, exists, err := c.companies.ExistsBySlug(ctx, app, slug)
	return exists, err
}

// CompensateArticle issues the compensating delete described in spec §4.8
// when a later step (junction rows, image columns) fails after the main
// record committed, or when a cancel signal arrives post-commit.
func (c *Coordinator) CompensateArticle(ctx context.Context, id string) error {
	return c.articles.Delete(ctx, mustParseUUID(id))
}

// CompensateCompany is CompensateArticle's company-side counterpart.
func (c *Coordinator) CompensateCompany(ctx context.Context, id string) error {
	return c.companies.Delete(ctx, mustParseUUID(id))
}

// StoreUpsertActivity adapts the coordinator to the generic store_upsert
// activity contract (spec §6) so it can be registered in the same
// activity manager as the HTTP-backed adapters, alongside their rate
// limiting and circuit breaking.
func (c *Coordinator) StoreUpsertActivity() *adapter.TypedActivity[adapter.StoreUpsertRequest, adapter.StoreUpsertResponse] {
	return adapter.NewTypedActivity("store_upsert", c.storeUpsert)
}

func (c *Coordinator) storeUpsert(ctx context.Context, req adapter.StoreUpsertRequest) (adapter.StoreUpsertResponse, error) {
	raw, err := json.Marshal(req.Payload)
	if err != nil {
		return adapter.StoreUpsertResponse{}, domain.Data(domain.CodeSchemaInvalid, "re-encode store_upsert payload: "+err.Error(), err)
	}

	switch req.Kind {
	case "article":
		var payload domain.ArticlePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return adapter.StoreUpsertResponse{}, domain.Data(domain.CodeSchemaInvalid, "decode article payload: "+err.Error(), err)
		}
		payload.Slug = req.Slug
		result, err := c.articles.Upsert(ctx, req.App, &payload, true)
		return toStoreUpsertResponse(result), err
	case "company":
		var payload domain.ProfilePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return adapter.StoreUpsertResponse{}, domain.Data(domain.CodeSchemaInvalid, "decode company payload: "+err.Error(), err)
		}
		payload.Slug = req.Slug
		result, err := c.companies.Upsert(ctx, req.App, &payload, true)
		return toStoreUpsertResponse(result), err
	default:
		return adapter.StoreUpsertResponse{}, domain.Input(domain.CodeValidation, "store_upsert: unknown kind "+req.Kind)
	}
}

func toStoreUpsertResponse(r repository.UpsertResult) adapter.StoreUpsertResponse {
	return adapter.StoreUpsertResponse{ID: r.ID.String(), Outcome: adapter.StoreOutcome(r.Outcome)}
}
