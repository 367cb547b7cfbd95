package category

import "time"

type Type string

const (
	TypeMain Type = "main"
	TypeSub  Type = "sub"
)

func (t Type) Valid() bool {
	return t == TypeMain || t == TypeSub
}

// Category is either a main category or a sub-category. Sub-categories carry a
// denormalised copy of their parent's name and slug.
type Category struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Type             Type      `db:"type" json:"type"`
	Description      string    `db:"description" json:"description"`
	Slug             string    `db:"slug" json:"slug"`
	MainCategoryID   *string   `db:"main_category_id" json:"main_category_id,omitempty"`
	MainCategoryName *string   `db:"main_category_name" json:"main_category_name,omitempty"`
	MainCategorySlug *string   `db:"main_category_slug" json:"main_category_slug,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy        string    `db:"created_by" json:"created_by"`
}

func (c Category) IsMain() bool {
	return c.Type == TypeMain
}

func (c Category) ParentID() string {
	if c.MainCategoryID == nil {
		return ""
	}
	return *c.MainCategoryID
}

type CreateInput struct {
	Name           string
	Type           string
	Description    string
	Slug           string
	MainCategoryID string
	CreatedBy      string
}

type UpdateInput struct {
	Name        *string
	Description *string
}

// Tree groups sub-categories under their main category id.
type Tree struct {
	Main         []Category            `json:"main_categories"`
	SubsByMainID map[string][]Category `json:"sub_categories_by_main"`
}
