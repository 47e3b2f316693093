// Package models holds the bun ORM row types backing the persistence
// coordinator (spec §4.8, "Persisted state layout").
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONBMap is a generic jsonb column carrier, used for the payload and
// metadata columns that need forward-compatible structure without a
// dedicated migration per field.
type JSONBMap map[string]interface{}

func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONBMap)
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return errors.New("failed to scan JSONBMap: value is not []byte or string")
		}
	}
	if len(b) == 0 {
		*j = make(JSONBMap)
		return nil
	}
	return json.Unmarshal(b, j)
}

// StringArray is a Postgres TEXT[] column carrier, used for geographic
// tags, specialization tags, deal tags, and article keyword lists.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	s := string(b)
	return "{" + s[1:len(s)-1] + "}", nil
}

func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = make(StringArray, 0)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("failed to scan StringArray: unexpected type")
	}
	if len(b) == 0 || string(b) == "{}" {
		*a = make(StringArray, 0)
		return nil
	}
	s := string(b)
	if s[0] == '{' && s[len(s)-1] == '}' {
		return json.Unmarshal([]byte("["+s[1:len(s)-1]+"]"), a)
	}
	return errors.New("invalid postgres array format")
}

// ImageColumns is embedded seven times over (once per bundle slot) by
// both ArticleModel and CompanyModel — the abstract "per-image columns"
// from the persisted state layout, flattened into four plain columns
// per slot rather than a nested jsonb blob, so each field is directly
// queryable and indexable.
type ImageColumns struct {
	URL         *string `bun:",nullzero"`
	Alt         *string `bun:",nullzero"`
	Description *string `bun:",nullzero"`
	Title       *string `bun:",nullzero"`
}
