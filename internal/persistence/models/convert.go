package models

import (
	"github.com/Londondannyboy/quest-sub002/internal/domain"
)

func imageColumnsFromImage(img *domain.Image) ImageColumns {
	if img == nil {
		return ImageColumns{}
	}
	url, alt, desc, title := img.URL, img.Alt, img.Description, img.Title
	return ImageColumns{URL: &url, Alt: &alt, Description: &desc, Title: &title}
}

func imageFromColumns(c ImageColumns) *domain.Image {
	if c.URL == nil {
		return nil
	}
	img := &domain.Image{URL: *c.URL}
	if c.Alt != nil {
		img.Alt = *c.Alt
	}
	if c.Description != nil {
		img.Description = *c.Description
	}
	if c.Title != nil {
		img.Title = *c.Title
	}
	return img
}

// FromArticlePayload maps a validated ArticlePayload onto the row shape,
// leaving identity columns (ID, App, CreatedAt) for the caller to set.
func FromArticlePayload(p *domain.ArticlePayload) *ArticleModel {
	m := &ArticleModel{
		Slug:              p.Slug,
		Title:             p.Title,
		Subtitle:          p.Subtitle,
		MarkdownBody:      p.MarkdownBody,
		Excerpt:           p.Excerpt,
		Classification:    p.Classification,
		Tags:              StringArray(p.Tags),
		MetaDescription:   p.MetaDescription,
		WordCount:         p.WordCount,
		ReadingTimeMin:    p.ReadingTimeMin,
		EditorialStatus:   string(p.EditorialStatus),
		PublishedAt:       p.PublishedAt,
		ConfidenceScore:   p.ConfidenceScore,
		CompletenessScore: p.CompletenessScore,
		Featured:          imageColumnsFromImage(p.Images.Featured),
		Hero:              imageColumnsFromImage(p.Images.Hero),
		Content1:          imageColumnsFromImage(p.Images.Content1),
		Content2:          imageColumnsFromImage(p.Images.Content2),
		Content3:          imageColumnsFromImage(p.Images.Content3),
		Content4:          imageColumnsFromImage(p.Images.Content4),
		Content5:          imageColumnsFromImage(p.Images.Content5),
		Payload:           articlePayloadJSON(p),
	}
	return m
}

// ToArticlePayload reconstructs an ArticlePayload from a stored row. The
// sections slice, being order-sensitive free text, round-trips through
// the payload jsonb column rather than a queryable column.
func ToArticlePayload(m *ArticleModel) *domain.ArticlePayload {
	p := &domain.ArticlePayload{
		Title:             m.Title,
		Subtitle:          m.Subtitle,
		Slug:              m.Slug,
		MarkdownBody:      m.MarkdownBody,
		Excerpt:           m.Excerpt,
		Classification:    m.Classification,
		Tags:              []string(m.Tags),
		MetaDescription:   m.MetaDescription,
		WordCount:         m.WordCount,
		ReadingTimeMin:    m.ReadingTimeMin,
		EditorialStatus:   domain.EditorialStatus(m.EditorialStatus),
		PublishedAt:       m.PublishedAt,
		ConfidenceScore:   m.ConfidenceScore,
		CompletenessScore: m.CompletenessScore,
		Images: domain.ImageBundle{
			Featured: imageFromColumns(m.Featured),
			Hero:     imageFromColumns(m.Hero),
			Content1: imageFromColumns(m.Content1),
			Content2: imageFromColumns(m.Content2),
			Content3: imageFromColumns(m.Content3),
			Content4: imageFromColumns(m.Content4),
			Content5: imageFromColumns(m.Content5),
		},
	}
	hydrateArticlePayloadFromJSON(m.Payload, p)
	return p
}

// FromProfilePayload maps a validated ProfilePayload onto the row shape,
// leaving identity columns (ID, App, CreatedAt) for the caller to set.
func FromProfilePayload(p *domain.ProfilePayload) *CompanyModel {
	m := &CompanyModel{
		Slug:            p.Slug,
		LegalName:       p.LegalName,
		Domain:          p.Domain,
		CompanyType:     p.CompanyType,
		Website:         p.Website,
		Industry:        p.Industry,
		HeadquartersCity:    p.HeadquartersCity,
		HeadquartersCountry: p.HeadquartersCountry,
		FoundedYear:         p.FoundedYear,
		EmployeeRange:       p.EmployeeRange,
		GeographicTags:      StringArray(p.GeographicTags),
		SpecializationTags:  StringArray(p.SpecializationTags),
		DealTags:            StringArray(p.DealTags),
		ConfidenceScore:     p.ConfidenceScore,
		ResearchCostUSD:     p.ResearchCostUSD,
		DataSources:         StringArray(p.DataSources),
		Featured:            imageColumnsFromImage(p.Images.Featured),
		Hero:                imageColumnsFromImage(p.Images.Hero),
		Payload:             profilePayloadJSON(p),
	}
	return m
}

// ToProfilePayload reconstructs a ProfilePayload from a stored row.
func ToProfilePayload(m *CompanyModel) *domain.ProfilePayload {
	p := &domain.ProfilePayload{
		LegalName:           m.LegalName,
		Domain:              m.Domain,
		Slug:                m.Slug,
		CompanyType:         m.CompanyType,
		Website:             m.Website,
		Industry:            m.Industry,
		HeadquartersCity:    m.HeadquartersCity,
		HeadquartersCountry: m.HeadquartersCountry,
		FoundedYear:         m.FoundedYear,
		EmployeeRange:       m.EmployeeRange,
		GeographicTags:      []string(m.GeographicTags),
		SpecializationTags:  []string(m.SpecializationTags),
		DealTags:            []string(m.DealTags),
		ConfidenceScore:     m.ConfidenceScore,
		ResearchCostUSD:     m.ResearchCostUSD,
		DataSources:         []string(m.DataSources),
		Images: domain.ImageBundle{
			Featured: imageFromColumns(m.Featured),
			Hero:     imageFromColumns(m.Hero),
		},
	}
	hydrateProfilePayloadFromJSON(m.Payload, p)
	return p
}

// articlePayloadJSON serializes the free-form, order-sensitive parts of
// an ArticlePayload (sections, mentioned companies) that have no
// dedicated column.
func articlePayloadJSON(p *domain.ArticlePayload) JSONBMap {
	sections := make([]JSONBMap, 0, len(p.Sections))
	for _, s := range p.Sections {
		entry := JSONBMap{
			"h2_title":  s.H2Title,
			"body":      s.Body,
			"sentiment": string(s.Sentiment),
		}
		if s.ImageIndex != nil {
			entry["image_index"] = *s.ImageIndex
		}
		sections = append(sections, entry)
	}
	mentioned := make([]JSONBMap, 0, len(p.MentionedCompanies))
	for _, mc := range p.MentionedCompanies {
		mentioned = append(mentioned, JSONBMap{
			"company_id": mc.CompanyID,
			"relevance":  mc.Relevance,
		})
	}
	return JSONBMap{
		"sections":            toAnySlice(sections),
		"mentioned_companies": toAnySlice(mentioned),
	}
}

func hydrateArticlePayloadFromJSON(raw JSONBMap, p *domain.ArticlePayload) {
	if raw == nil {
		return
	}
	if rows, ok := raw["sections"].([]interface{}); ok {
		for _, row := range rows {
			entry, ok := row.(map[string]interface{})
			if !ok {
				continue
			}
			sec := domain.ArticleSection{
				H2Title:   stringField(entry, "h2_title"),
				Body:      stringField(entry, "body"),
				Sentiment: domain.Sentiment(stringField(entry, "sentiment")),
			}
			if v, ok := entry["image_index"].(float64); ok {
				idx := int(v)
				sec.ImageIndex = &idx
			}
			p.Sections = append(p.Sections, sec)
		}
	}
	if rows, ok := raw["mentioned_companies"].([]interface{}); ok {
		for _, row := range rows {
			entry, ok := row.(map[string]interface{})
			if !ok {
				continue
			}
			rel, _ := entry["relevance"].(float64)
			p.MentionedCompanies = append(p.MentionedCompanies, domain.MentionedCompany{
				CompanyID: stringField(entry, "company_id"),
				Relevance: rel,
			})
		}
	}
}

// profilePayloadJSON serializes the ordered profile_sections mapping,
// which a plain jsonb object would silently un-order.
func profilePayloadJSON(p *domain.ProfilePayload) JSONBMap {
	order := make([]interface{}, 0, len(p.SectionOrder))
	sections := make(JSONBMap, len(p.Sections))
	for _, key := range p.SectionOrder {
		order = append(order, key)
		s := p.Sections[key]
		sections[key] = JSONBMap{
			"title":            s.Title,
			"markdown_content": s.MarkdownContent,
			"confidence":       s.Confidence,
			"source_urls":      toAnySlice(s.SourceURLs),
		}
	}
	return JSONBMap{
		"section_order": order,
		"sections":      sections,
	}
}

func hydrateProfilePayloadFromJSON(raw JSONBMap, p *domain.ProfilePayload) {
	if raw == nil {
		return
	}
	sectionsRaw, _ := raw["sections"].(map[string]interface{})
	orderRaw, _ := raw["section_order"].([]interface{})
	for _, keyAny := range orderRaw {
		key, ok := keyAny.(string)
		if !ok {
			continue
		}
		entry, ok := sectionsRaw[key].(map[string]interface{})
		if !ok {
			continue
		}
		conf, _ := entry["confidence"].(float64)
		var urls []string
		if rawURLs, ok := entry["source_urls"].([]interface{}); ok {
			for _, u := range rawURLs {
				if s, ok := u.(string); ok {
					urls = append(urls, s)
				}
			}
		}
		p.AddSection(domain.ProfileSection{
			Key:             key,
			Title:           stringField(entry, "title"),
			MarkdownContent: stringField(entry, "markdown_content"),
			Confidence:      conf,
			SourceURLs:      urls,
		})
	}
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func toAnySlice[T any](in []T) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
