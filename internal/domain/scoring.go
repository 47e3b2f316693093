package domain

// AmbiguitySignals holds the five [0,1] measures combined into a
// company's identity confidence (spec §4.4).
type AmbiguitySignals struct {
	NameURLMatch        float64 // weight 0.30
	CategoryKeywordCoverage float64 // weight 0.25
	SourceCrossConsistency  float64 // weight 0.20, same legal name across >=2 sources
	NoHomonymWarnings       float64 // weight 0.15
	CoreFieldCompleteness   float64 // weight 0.10
}

const (
	weightNameURLMatch      = 0.30
	weightCategoryKeyword   = 0.25
	weightCrossConsistency  = 0.20
	weightNoHomonym         = 0.15
	weightCoreCompleteness  = 0.10

	// ConfidenceReresearchThreshold is the spec §4.4 cutoff below which
	// the engine may trigger a single refined re-research (P2').
	ConfidenceReresearchThreshold = 0.70
)

// Confidence computes the weighted-sum identity confidence described in
// spec §4.4. The five weights sum to 1.0.
func (s AmbiguitySignals) Confidence() float64 {
	return s.NameURLMatch*weightNameURLMatch +
		s.CategoryKeywordCoverage*weightCategoryKeyword +
		s.SourceCrossConsistency*weightCrossConsistency +
		s.NoHomonymWarnings*weightNoHomonym +
		s.CoreFieldCompleteness*weightCoreCompleteness
}

// NeedsReresearch reports whether this set of signals falls below the
// re-research threshold. Callers must still enforce the "at most one
// re-research attempt per workflow" invariant themselves via the
// config.PipelineConfig.MaxReresearchAttempts counter.
func (s AmbiguitySignals) NeedsReresearch() bool {
	return s.Confidence() < ConfidenceReresearchThreshold
}

// CanonicalArticleFields is the weighted field list for article
// completeness scoring (spec §4.10). Weights sum to 100.
var CanonicalArticleFields = []FieldWeight{
	{Name: "title", Weight: 10},
	{Name: "subtitle", Weight: 5},
	{Name: "markdown_body", Weight: 20},
	{Name: "excerpt", Weight: 5},
	{Name: "sections", Weight: 15},
	{Name: "classification", Weight: 5},
	{Name: "tags", Weight: 5},
	{Name: "meta_description", Weight: 5},
	{Name: "images.featured", Weight: 10},
	{Name: "images.hero", Weight: 5},
	{Name: "images.content", Weight: 10},
	{Name: "mentioned_companies", Weight: 5},
}

// CanonicalCompanyFields is the weighted field list for company
// completeness scoring (spec §4.10). Weights sum to 100.
var CanonicalCompanyFields = []FieldWeight{
	{Name: "legal_name", Weight: 15},
	{Name: "domain", Weight: 10},
	{Name: "company_type", Weight: 10},
	{Name: "website", Weight: 5},
	{Name: "industry", Weight: 10},
	{Name: "headquarters_city", Weight: 5},
	{Name: "headquarters_country", Weight: 5},
	{Name: "founded_year", Weight: 5},
	{Name: "employee_range", Weight: 5},
	{Name: "geographic_tags", Weight: 5},
	{Name: "specialization_tags", Weight: 5},
	{Name: "profile_sections", Weight: 15},
	{Name: "images.featured", Weight: 3},
	{Name: "images.hero", Weight: 2},
}

// FieldWeight pairs a canonical field name with its completeness weight.
type FieldWeight struct {
	Name   string
	Weight int
}

// CompletenessScore sums the weights of fields reported present by
// present, a predicate over canonical field names (spec §4.10: "the sum
// of weights of fields whose value is present and non-empty"). fields is
// one of CanonicalArticleFields or CanonicalCompanyFields.
func CompletenessScore(fields []FieldWeight, present func(fieldName string) bool) int {
	total := 0
	for _, f := range fields {
		if present(f.Name) {
			total += f.Weight
		}
	}
	return total
}

// ArticleCompleteness scores a, using spec §4.10's canonical article
// field list.
func ArticleCompleteness(a *ArticlePayload) int {
	present := func(name string) bool {
		switch name {
		case "title":
			return a.Title != ""
		case "subtitle":
			return a.Subtitle != ""
		case "markdown_body":
			return a.MarkdownBody != ""
		case "excerpt":
			return a.Excerpt != ""
		case "sections":
			return len(a.Sections) > 0
		case "classification":
			return a.Classification != ""
		case "tags":
			return len(a.Tags) > 0
		case "meta_description":
			return a.MetaDescription != ""
		case "images.featured":
			return a.Images.Featured != nil
		case "images.hero":
			return a.Images.Hero != nil
		case "images.content":
			return a.Images.Content1 != nil || a.Images.Content2 != nil || a.Images.Content3 != nil || a.Images.Content4 != nil || a.Images.Content5 != nil
		case "mentioned_companies":
			return len(a.MentionedCompanies) > 0
		default:
			return false
		}
	}
	return CompletenessScore(CanonicalArticleFields, present)
}

// CompanyCompleteness scores p, using spec §4.10's canonical company
// field list.
func CompanyCompleteness(p *ProfilePayload) int {
	present := func(name string) bool {
		switch name {
		case "legal_name":
			return p.LegalName != ""
		case "domain":
			return p.Domain != ""
		case "company_type":
			return p.CompanyType != ""
		case "website":
			return p.Website != ""
		case "industry":
			return p.Industry != nil && *p.Industry != ""
		case "headquarters_city":
			return p.HeadquartersCity != nil && *p.HeadquartersCity != ""
		case "headquarters_country":
			return p.HeadquartersCountry != nil && *p.HeadquartersCountry != ""
		case "founded_year":
			return p.FoundedYear != nil
		case "employee_range":
			return p.EmployeeRange != nil && *p.EmployeeRange != ""
		case "geographic_tags":
			return len(p.GeographicTags) > 0
		case "specialization_tags":
			return len(p.SpecializationTags) > 0
		case "profile_sections":
			return len(p.Sections) > 0
		case "images.featured":
			return p.Images.Featured != nil
		case "images.hero":
			return p.Images.Hero != nil
		default:
			return false
		}
	}
	return CompletenessScore(CanonicalCompanyFields, present)
}

// MeetsFloor reports whether score clears the given percentage floor.
func MeetsFloor(score int, floorPercent int) bool {
	return score >= floorPercent
}
