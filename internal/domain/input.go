package domain

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// AppTag enumerates the products the content pipeline serves.
type AppTag string

const (
	AppPlacement    AppTag = "placement"
	AppRelocation   AppTag = "relocation"
	AppChiefOfStaff AppTag = "chief-of-staff"
	AppConsultancy  AppTag = "consultancy"
)

func (a AppTag) valid() bool {
	switch a {
	case AppPlacement, AppRelocation, AppChiefOfStaff, AppConsultancy:
		return true
	default:
		return false
	}
}

// ArticleFormat enumerates the supported article shapes.
type ArticleFormat string

const (
	FormatArticle  ArticleFormat = "article"
	FormatListicle ArticleFormat = "listicle"
	FormatGuide    ArticleFormat = "guide"
	FormatAnalysis ArticleFormat = "analysis"
)

func (f ArticleFormat) valid() bool {
	switch f {
	case FormatArticle, FormatListicle, FormatGuide, FormatAnalysis:
		return true
	default:
		return false
	}
}

// ArticleFlags are optional behavior toggles for one workflow run.
type ArticleFlags struct {
	DeepCrawl      bool `json:"deep_crawl,omitempty"`
	GenerateImages bool `json:"generate_images,omitempty"`
	AutoPublish    bool `json:"auto_publish,omitempty"`
	SkipGraphSync  bool `json:"skip_graph_sync,omitempty"`
}

// ArticleInput is the immutable input to the article pipeline (spec §3).
// Field tags match the `quest-content-queue` wire shape (spec §6) so a
// queue.Message.Input payload decodes directly into this type.
type ArticleInput struct {
	Topic           string        `json:"topic"`
	AppTag          AppTag        `json:"app_tag"`
	TargetWordCount int           `json:"target_word_count,omitempty"`
	Format          ArticleFormat `json:"format,omitempty"`
	Jurisdiction    *string       `json:"jurisdiction,omitempty"`
	ResearchBreadth int           `json:"research_breadth,omitempty"`
	Flags           ArticleFlags  `json:"flags,omitempty"`
	Keywords        []string      `json:"keywords,omitempty"`
	MetaDescription *string       `json:"meta_description,omitempty"`
	Author          *string       `json:"author,omitempty"`
	EditorialAngle  *string       `json:"editorial_angle,omitempty"`
}

// Validate enforces the field constraints from spec §3. Violations are
// ClassInput and therefore never retried (spec §7).
func (a *ArticleInput) Validate() error {
	topic := strings.TrimSpace(a.Topic)
	if n := utf8.RuneCountInString(topic); n < 1 || n > 300 {
		return Input(CodeValidation, "topic must be 1-300 characters")
	}
	if !a.AppTag.valid() {
		return Input(CodeValidation, "app tag is invalid")
	}
	if a.TargetWordCount == 0 {
		a.TargetWordCount = 1500
	}
	if a.TargetWordCount < 500 || a.TargetWordCount > 5000 {
		return Input(CodeValidation, "target word count must be 500-5000")
	}
	if a.Format == "" {
		a.Format = FormatArticle
	}
	if !a.Format.valid() {
		return Input(CodeValidation, "format is invalid")
	}
	if a.ResearchBreadth == 0 {
		a.ResearchBreadth = 8
	}
	if a.ResearchBreadth < 3 || a.ResearchBreadth > 20 {
		return Input(CodeValidation, "research breadth must be 3-20")
	}
	return nil
}

// CompanyInput is the immutable input to the company pipeline (spec §3).
type CompanyInput struct {
	URL          string  `json:"url"`
	Category     string  `json:"category,omitempty"`
	Jurisdiction *string `json:"jurisdiction,omitempty"`
	AppTag       AppTag  `json:"app_tag"`
	ForceUpdate  bool    `json:"force_update,omitempty"`
}

// Host returns the canonical host the URL resolves to.
func (c *CompanyInput) Host() (string, error) {
	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil || u.Host == "" {
		// Allow bare domains without a scheme, matching how operators
		// actually paste company URLs.
		u, err = url.Parse("https://" + strings.TrimSpace(c.URL))
		if err != nil || u.Host == "" {
			return "", Input(CodeValidation, "url must be parseable to a host")
		}
	}
	return strings.ToLower(u.Host), nil
}

// Validate enforces the field constraints from spec §3.
func (c *CompanyInput) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return Input(CodeValidation, "url is required")
	}
	if _, err := c.Host(); err != nil {
		return err
	}
	if !c.AppTag.valid() {
		return Input(CodeValidation, "app tag is invalid")
	}
	return nil
}
