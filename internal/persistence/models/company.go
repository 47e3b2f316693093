package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CompanyModel is the "companies" record table from the persisted state
// layout (spec §4.8): one row per ProfilePayload, unique on (app, slug).
// Only Featured and Hero image slots are populated for companies
// (image_count=2 per spec §6 config) — Content1..5 stay nil.
type CompanyModel struct {
	bun.BaseModel `bun:"table:companies,alias:c"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:uuid_generate_v4()"`
	App         string    `bun:"app,notnull"`
	Slug        string    `bun:"slug,notnull"`
	LegalName   string    `bun:"legal_name,notnull"`
	Domain      string    `bun:"domain,notnull"`
	CompanyType string    `bun:"company_type,notnull"`
	Website     string    `bun:"website"`

	Industry            *string     `bun:"industry"`
	HeadquartersCity    *string     `bun:"headquarters_city"`
	HeadquartersCountry *string     `bun:"headquarters_country"`
	FoundedYear         *int        `bun:"founded_year"`
	EmployeeRange       *string     `bun:"employee_range"`
	GeographicTags      StringArray `bun:"geographic_tags,type:text[],default:'{}'"`
	SpecializationTags  StringArray `bun:"specialization_tags,type:text[],default:'{}'"`
	DealTags            StringArray `bun:"deal_tags,type:text[],default:'{}'"`

	ConfidenceScore float64     `bun:"confidence_score"`
	ResearchCostUSD float64     `bun:"research_cost_usd"`
	DataSources     StringArray `bun:"data_sources,type:text[],default:'{}'"`

	GraphID *string `bun:"graph_id"`

	// Payload carries the full validated ProfilePayload (ordered
	// profile_sections, ambiguity_signals, etc.).
	Payload JSONBMap `bun:"payload,type:jsonb,default:'{}'"`

	Featured ImageColumns `bun:"embed:featured_"`
	Hero     ImageColumns `bun:"embed:hero_"`

	CreatedAt time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	DeletedAt *time.Time `bun:"deleted_at"`

	Articles []*ArticleCompanyModel `bun:"rel:has-many,join:id=company_id"`
}

func (CompanyModel) TableName() string { return "companies" }

func (c *CompanyModel) touchTimestamps(isNew bool) {
	now := time.Now()
	c.UpdatedAt = now
	if isNew {
		c.CreatedAt = now
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if c.Payload == nil {
			c.Payload = make(JSONBMap)
		}
	}
}
