package product

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Product struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	CategoryID       string     `db:"category_id" json:"category_id"`
	CategoryName     string     `db:"category_name" json:"category_name"`
	MainCategoryID   string     `db:"main_category_id" json:"main_category_id"`
	MainCategoryName string     `db:"main_category_name" json:"main_category_name"`
	MainCategorySlug string     `db:"main_category_slug" json:"main_category_slug"`
	Description      string     `db:"description" json:"description"`
	Images           StringList `db:"images" json:"images"`
	Specifications   Specs      `db:"specifications" json:"specifications"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	SEOTitle         string     `db:"seo_title" json:"seo_title"`
	SEODescription   string     `db:"seo_description" json:"seo_description"`
	SEOKeywords      string     `db:"seo_keywords" json:"seo_keywords"`
	SEOSlug          string     `db:"seo_slug" json:"seo_slug"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
	CreatedBy        string     `db:"created_by" json:"created_by"`
}

type CreateInput struct {
	Name           string
	CategoryID     string
	Description    string
	Images         []string
	Specifications map[string]any
	IsActive       *bool
	SEOTitle       string
	SEODescription string
	SEOKeywords    string
	SEOSlug        string
	CreatedBy      string
}

// UpdateInput holds a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name           *string
	CategoryID     *string
	Description    *string
	Images         *[]string
	Specifications map[string]any
	IsActive       *bool
	SEOTitle       *string
	SEODescription *string
	SEOKeywords    *string
	SEOSlug        *string
}

type ListFilter struct {
	CategoryID       string
	MainCategorySlug string
	IsActive         bool
	Limit            int
	Skip             int
}

// StringList is stored as a JSONB array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	return string(raw), err
}

func (l *StringList) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		*l = StringList{}
		return err
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

// Specs is a free-form JSONB object.
type Specs map[string]any

func (s Specs) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]any(s))
	return string(raw), err
}

func (s *Specs) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		*s = Specs{}
		return err
	}
	return json.Unmarshal(raw, (*map[string]any)(s))
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source %T", src)
	}
}
