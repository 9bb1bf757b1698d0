package dinner

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
)

var (
	categoryTag  = "menucategory"
	categoryText = "Invalid category"

	roleTag  = "volunteerrole"
	roleText = "Invalid role"

	errInvalidParty = errors.New("Invalid party numbers")
	errEmptyParty   = errors.New("Party size cannot be zero")
)

// InitValidators registers the dinner validation tags. core.InitValidators must run first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, func(fl validator.FieldLevel) bool {
		return Category(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)

	_ = validate.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		return Role(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

type (
	NewMenuItem struct {
		Category Category `json:"category" validate:"menucategory"`
		Item     string   `json:"item" validate:"notblank,max=200"`
	}

	NewVolunteer struct {
		Role Role `json:"role" validate:"volunteerrole"`
	}

	NewRSVP struct {
		Party
	}

	NewNote struct {
		Text string `json:"text" validate:"notblank,max=2000"`
	}

	UpdateDetail struct {
		Field Detail `json:"-"`
		Value string `json:"value" validate:"max=200"`
	}
)

func (nm *NewMenuItem) Validate(validate *validator.Validate) error {
	nm.Item = core.CleanString(nm.Item)
	return validate.Struct(nm)
}

func (nv *NewVolunteer) Validate(validate *validator.Validate) error {
	return validate.Struct(nv)
}

func (nr *NewRSVP) Validate(_ *validator.Validate) error {
	return ValidateParty(nr.Party, true)
}

// ValidateParty rejects negative head counts and, when nonEmpty is set, an empty party.
func ValidateParty(p Party, nonEmpty bool) error {
	if p.Adults < 0 || p.Teens < 0 || p.Children < 0 || p.Under5 < 0 {
		return core.NewValidationError(errInvalidParty)
	}
	if nonEmpty && p.Total() <= 0 {
		return core.NewValidationError(errEmptyParty)
	}
	return nil
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.Text = core.CleanString(nn.Text)
	return validate.Struct(nn)
}

func (ud *UpdateDetail) Validate(validate *validator.Validate) error {
	if !ud.Field.Valid() {
		return core.NewValidationError(errors.Errorf("Unknown field %q", ud.Field))
	}
	ud.Value = core.CleanString(ud.Value)
	if ud.Field == Time && !core.IsClockTime(ud.Value) {
		return core.NewValidationError(nil, core.FieldError{Field: "value", Error: "Invalid time format"})
	}
	return validate.Struct(ud)
}
