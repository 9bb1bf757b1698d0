package settings

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/potluck/core"
)

// Rates are the recommended donation amounts per person, by age group.
type Rates struct {
	Adults   float64 `json:"adults" validate:"min=0"`
	Teens    float64 `json:"teens" validate:"min=0"`
	Children float64 `json:"children" validate:"min=0"`
	Under5   float64 `json:"under5" validate:"min=0"`
}

// Settings are the site-wide settings editable by admins.
type Settings struct {
	// DinnerDay is the weekday of the dinner, Sunday = 0.
	DinnerDay       int   `json:"dinner_day"`
	DonationAmounts Rates `json:"donation_amounts"`
}

// Default returns the settings used until an admin changes them.
func Default() Settings {
	return Settings{
		DinnerDay: 6, // saturday
		DonationAmounts: Rates{
			Adults:   10,
			Teens:    6,
			Children: 3,
			Under5:   0,
		},
	}
}

var (
	errInvalidDinnerDay = errors.New("Invalid dinner day")
	errNegativeAmounts  = errors.New("Donation amounts cannot be negative")
)

type UpdateSettings struct {
	DinnerDay       *int  `json:"dinner_day" validate:"required"`
	DonationAmounts Rates `json:"donation_amounts"`
}

func (us *UpdateSettings) Validate(validate *validator.Validate) error {
	if us.DinnerDay == nil || *us.DinnerDay < 0 || *us.DinnerDay > 6 {
		return core.NewValidationError(errInvalidDinnerDay, core.FieldError{Field: "dinner_day", Error: errInvalidDinnerDay.Error()})
	}
	if err := validate.Struct(us); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			return core.NewValidationError(errNegativeAmounts, core.FieldError{Field: "donation_amounts", Error: errNegativeAmounts.Error()})
		}
		return err
	}
	return nil
}
