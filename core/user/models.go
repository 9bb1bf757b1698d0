package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/potluck/core"
)

// User is someone who signed in by typing their name. Names are unique, ignoring case.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

// SameName reports whether name designates usr.
func (usr User) SameName(name string) bool {
	return strings.EqualFold(usr.Name, core.CleanString(name))
}

type Login struct {
	Name string `json:"name" validate:"notblank,max=50"`
}

func (l *Login) Validate(validate *validator.Validate) error {
	l.Name = core.CleanString(l.Name)
	return validate.Struct(l)
}
