package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ArticleModel is the "articles" record table from the persisted state
// layout (spec §4.8): one row per ArticlePayload, unique on (app, slug).
type ArticleModel struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID              uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()"`
	App             string    `bun:"app,notnull"`
	Slug            string    `bun:"slug,notnull"`
	Title           string    `bun:"title,notnull"`
	Subtitle        string    `bun:"subtitle"`
	MarkdownBody    string    `bun:"markdown_body,notnull"`
	Excerpt         string    `bun:"excerpt"`
	Classification  string    `bun:"classification"`
	Tags            StringArray `bun:"tags,type:text[],default:'{}'"`
	MetaDescription string    `bun:"meta_description"`
	WordCount       int       `bun:"word_count,notnull"`
	ReadingTimeMin  int       `bun:"reading_time_min,notnull"`
	EditorialStatus string    `bun:"editorial_status,notnull,default:'draft'"`
	PublishedAt     *time.Time `bun:"published_at"`

	ConfidenceScore   float64 `bun:"confidence_score"`
	CompletenessScore float64 `bun:"completeness_score"`

	// GraphID is written back only after a successful graph_upsert
	// (spec §4.9) — nil means sync hasn't happened yet, not that it failed.
	GraphID *string `bun:"graph_id"`

	// Payload carries the full validated ArticlePayload (sections,
	// mentioned_companies, etc.) for forward compatibility, alongside
	// the queryable columns above.
	Payload JSONBMap `bun:"payload,type:jsonb,default:'{}'"`

	Featured ImageColumns `bun:"embed:featured_"`
	Hero     ImageColumns `bun:"embed:hero_"`
	Content1 ImageColumns `bun:"embed:content1_"`
	Content2 ImageColumns `bun:"embed:content2_"`
	Content3 ImageColumns `bun:"embed:content3_"`
	Content4 ImageColumns `bun:"embed:content4_"`
	Content5 ImageColumns `bun:"embed:content5_"`

	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	DeletedAt *time.Time `bun:"deleted_at"`

	Companies []*ArticleCompanyModel `bun:"rel:has-many,join:id=article_id"`
}

func (ArticleModel) TableName() string { return "articles" }

func (a *ArticleModel) touchTimestamps(isNew bool) {
	now := time.Now()
	a.UpdatedAt = now
	if isNew {
		a.CreatedAt = now
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		if a.Payload == nil {
			a.Payload = make(JSONBMap)
		}
	}
}

// ArticleCompanyModel is the article↔company junction table (spec §4.8,
// §4.7 entity linker output): one row per resolved mention, carrying the
// relevance score that survived the ≥0.3 keep threshold.
type ArticleCompanyModel struct {
	bun.BaseModel `bun:"table:article_companies,alias:ac"`

	ArticleID uuid.UUID `bun:"article_id,pk,type:uuid"`
	CompanyID uuid.UUID `bun:"company_id,pk,type:uuid"`
	Relevance float64   `bun:"relevance,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (ArticleCompanyModel) TableName() string { return "article_companies" }
