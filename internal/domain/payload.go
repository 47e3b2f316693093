package domain

import "time"

// Image is one entry in an image bundle (spec §3, §4.6).
type Image struct {
	URL                string `json:"url"`
	Alt                string `json:"alt"`
	Description        string `json:"description"`
	Title              string `json:"title"`
	SourceSectionIndex *int   `json:"source_section_index,omitempty"`
	Fingerprint        string `json:"-"` // hash of seed+prompt+reference_image_url
}

// ImageBundle holds the fixed-shape image set both payload kinds carry.
// Article bundles use all seven slots; company bundles use only
// Featured and Hero (image_count=2, spec §6 config).
type ImageBundle struct {
	Featured *Image `json:"featured,omitempty"` // 1200x630
	Hero     *Image `json:"hero,omitempty"`     // 16:9
	Content1 *Image `json:"content_1,omitempty"` // 4:3 or 1:1
	Content2 *Image `json:"content_2,omitempty"`
	Content3 *Image `json:"content_3,omitempty"`
	Content4 *Image `json:"content_4,omitempty"`
	Content5 *Image `json:"content_5,omitempty"`
}

// Slots returns the bundle's images in canonical sequencing order,
// alongside their emission index (1-based, matching section.image_index
// semantics from spec invariant 3). Nil slots are included so callers
// can detect which indices failed to generate.
func (b *ImageBundle) Slots() []*Image {
	return []*Image{b.Featured, b.Hero, b.Content1, b.Content2, b.Content3, b.Content4, b.Content5}
}

// SetByIndex sets the image at the sequencer's 0-based emission index.
func (b *ImageBundle) SetByIndex(i int, img *Image) {
	switch i {
	case 0:
		b.Featured = img
	case 1:
		b.Hero = img
	case 2:
		b.Content1 = img
	case 3:
		b.Content2 = img
	case 4:
		b.Content3 = img
	case 5:
		b.Content4 = img
	case 6:
		b.Content5 = img
	}
}

// ContentImageByPosition returns content_1..content_5 by their 1-based
// position (the numbering used by section.image_index), or nil if that
// image was never generated or failed (spec E5).
func (b *ImageBundle) ContentImageByPosition(pos int) *Image {
	switch pos {
	case 1:
		return b.Content1
	case 2:
		return b.Content2
	case 3:
		return b.Content3
	case 4:
		return b.Content4
	case 5:
		return b.Content5
	default:
		return nil
	}
}

// ProfileSection is one entry of the narrative-first ordered mapping
// `profile_sections` (spec §3). A section only exists in the map when
// content meets the evidentiary bar (>=2 sentences, confidence >= 0.5);
// the synthesizer enforces that bar before inserting, so by the time a
// ProfileSection exists it is presumed valid.
type ProfileSection struct {
	Key             string   `json:"-"`
	Title           string   `json:"title"`
	MarkdownContent string   `json:"markdown_content"`
	Confidence      float64  `json:"confidence"`
	SourceURLs      []string `json:"source_urls,omitempty"`
}

// ProfilePayload is the narrative-first company profile (spec §3).
type ProfilePayload struct {
	LegalName   string `json:"legal_name"`
	Domain      string `json:"domain"`
	Slug        string `json:"slug"`
	CompanyType string `json:"company_type"`
	Website     string `json:"website"`

	Industry            *string  `json:"industry,omitempty"`
	HeadquartersCity    *string  `json:"headquarters_city,omitempty"`
	HeadquartersCountry *string  `json:"headquarters_country,omitempty"`
	FoundedYear         *int     `json:"founded_year,omitempty"`
	EmployeeRange       *string  `json:"employee_range,omitempty"`
	GeographicTags      []string `json:"geographic_tags,omitempty"`
	SpecializationTags  []string `json:"specialization_tags,omitempty"`
	DealTags            []string `json:"deal_tags,omitempty"`

	// ProfileSections is an ORDERED mapping: insertion order is
	// preserved via SectionOrder, keyed lookup via Sections.
	SectionOrder []string                   `json:"section_order"`
	Sections     map[string]ProfileSection  `json:"profile_sections"`

	Images ImageBundle `json:"images"`

	ConfidenceScore  float64          `json:"confidence_score"`
	ResearchCostUSD  float64          `json:"research_cost_usd"`
	AmbiguitySignals AmbiguitySignals `json:"ambiguity_signals"`
	DataSources      []string         `json:"data_sources,omitempty"`
}

// AddSection appends a section, preserving insertion order, and enforces
// the >=2-sentence / >=0.5-confidence evidentiary bar from spec §3.
func (p *ProfilePayload) AddSection(s ProfileSection) bool {
	if !meetsSectionBar(s.MarkdownContent, s.Confidence) {
		return false
	}
	if p.Sections == nil {
		p.Sections = make(map[string]ProfileSection)
	}
	if _, exists := p.Sections[s.Key]; !exists {
		p.SectionOrder = append(p.SectionOrder, s.Key)
	}
	p.Sections[s.Key] = s
	return true
}

// OrderedSections returns the sections in their insertion order.
func (p *ProfilePayload) OrderedSections() []ProfileSection {
	out := make([]ProfileSection, 0, len(p.SectionOrder))
	for _, k := range p.SectionOrder {
		out = append(out, p.Sections[k])
	}
	return out
}

func meetsSectionBar(markdown string, confidence float64) bool {
	if confidence < 0.5 {
		return false
	}
	return countSentences(markdown) >= 2
}

func countSentences(s string) int {
	count := 0
	for _, r := range s {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	return count
}

// Sentiment is the per-section tone classification (spec §3, §4.6).
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// ArticleSection is one `sections[]` entry of an ArticlePayload (spec §3).
type ArticleSection struct {
	H2Title    string    `json:"h2_title"`
	Body       string    `json:"body"`
	Sentiment  Sentiment `json:"sentiment"`
	ImageIndex *int      `json:"image_index,omitempty"` // 1..5, or nil (invariant 3)
}

// EditorialStatus is the lifecycle status of an ArticlePayload (spec §3, §7).
type EditorialStatus string

const (
	StatusDraft     EditorialStatus = "draft"
	StatusPublished EditorialStatus = "published"
	StatusArchived  EditorialStatus = "archived"
)

// MentionedCompany is one entry in `mentioned_companies` (spec §3, §4.7).
type MentionedCompany struct {
	CompanyID string  `json:"company_id"`
	Relevance float64 `json:"relevance"` // [0,1]
}

// ArticlePayload is the full synthesized article (spec §3).
type ArticlePayload struct {
	Title           string           `json:"title"`
	Subtitle        string           `json:"subtitle"`
	Slug            string           `json:"slug"`
	MarkdownBody    string           `json:"markdown_body"`
	Excerpt         string           `json:"excerpt"`
	Sections        []ArticleSection `json:"sections"`
	Classification  string           `json:"classification"`
	Tags            []string         `json:"tags,omitempty"`
	MetaDescription string           `json:"meta_description"`
	WordCount       int              `json:"word_count"`
	ReadingTimeMin  int              `json:"reading_time"`
	Images          ImageBundle      `json:"images"`
	EditorialStatus EditorialStatus  `json:"editorial_status"`
	PublishedAt     *time.Time       `json:"published_at,omitempty"`
	MentionedCompanies []MentionedCompany `json:"mentioned_companies,omitempty"`

	ConfidenceScore   float64 `json:"confidence_score"`
	CompletenessScore float64 `json:"completeness_score"`
}

// ValidateImageIndices enforces payload invariant 3: every section's
// image_index is either nil or in {1..5} and refers to an image that
// was actually generated (not nil'd out by a partial image failure).
func (a *ArticlePayload) ValidateImageIndices() error {
	for i, s := range a.Sections {
		if s.ImageIndex == nil {
			continue
		}
		idx := *s.ImageIndex
		if idx < 1 || idx > 5 {
			return Data(CodeSchemaInvalid, "section image_index out of range", nil)
		}
		if a.Images.ContentImageByPosition(idx) == nil {
			return Data(CodeSchemaInvalid, "section image_index references a non-existent image", nil)
		}
		_ = i
	}
	return nil
}

// MeetsWordFloor enforces payload invariant 2: word_count >= 0.85 *
// target_word_count.
func (a *ArticlePayload) MeetsWordFloor(targetWordCount int) bool {
	return float64(a.WordCount) >= 0.85*float64(targetWordCount)
}
