package about

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/potluck/core"
)

const DefaultContent = "<h2>About Community Dinners</h2><p>Welcome to the Community Dinners website!</p>"

// Page is the editable About page. Content is HTML produced by the client editor.
type Page struct {
	Content       string    `json:"content"`
	LastUpdated   time.Time `json:"last_updated"`
	LastUpdatedBy string    `json:"last_updated_by"`
}

func Default() Page {
	return Page{Content: DefaultContent}
}

type UpdatePage struct {
	Content string `json:"content" validate:"notblank,max=100000"`
}

func (up *UpdatePage) Validate(validate *validator.Validate) error {
	up.Content = core.CleanString(up.Content)
	return validate.Struct(up)
}
