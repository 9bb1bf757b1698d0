// Package docrepos implements the domain repositories on top of a docstore.Store,
// one JSON document per logical entity.
package docrepos

// Document keys.
const (
	KeyCurrentDinner = "dinners/current"
	KeyNextDinner    = "dinners/next"
	KeyArchive       = "dinners/archive"
	KeySettings      = "settings"
	KeyUsers         = "users"
	KeyAbout         = "about"
)
