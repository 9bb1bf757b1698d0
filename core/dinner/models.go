package dinner

import (
	"time"
)

const (
	DefaultTime = "18:00"
	dateLayout  = "2006-01-02"
)

// Which selects one of the two editable dinner records.
type Which string

const (
	Current Which = "current"
	Next    Which = "next"
)

func (w Which) Valid() bool { return w == Current || w == Next }

// Category is a menu section.
type Category string

const (
	MainDishes Category = "main_dishes"
	Sides      Category = "sides"
	Drinks     Category = "drinks"
	Appetizers Category = "appetizers"
	Supplies   Category = "supplies"
)

var Categories = []Category{MainDishes, Sides, Drinks, Appetizers, Supplies}

func (c Category) Valid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Role is a volunteer role.
type Role string

const (
	Setup   Role = "setup"
	Cleanup Role = "cleanup"
)

var Roles = []Role{Setup, Cleanup}

func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Detail is an editable scalar field of a dinner.
type Detail string

const (
	Theme    Detail = "theme"
	Location Detail = "location"
	Time     Detail = "time"
)

func (d Detail) Valid() bool { return d == Theme || d == Location || d == Time }

type (
	MenuItem struct {
		ID   string `json:"id"`
		Item string `json:"item"`
		Name string `json:"name"`
	}

	Volunteer struct {
		Name string `json:"name"`
	}

	RSVP struct {
		Name string `json:"name"`
		Party
		Timestamp time.Time `json:"timestamp"`
	}

	Note struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		Name      string    `json:"name"`
		Timestamp time.Time `json:"timestamp"`
	}

	Dinner struct {
		ID         string                  `json:"id"`
		Date       string                  `json:"date"`
		Theme      string                  `json:"theme"`
		Location   string                  `json:"location"`
		Time       string                  `json:"time"`
		Menu       map[Category][]MenuItem `json:"menu"`
		Volunteers map[Role][]Volunteer    `json:"volunteers"`
		RSVPs      []RSVP                  `json:"rsvp"`
		Notes      []Note                  `json:"notes"`
	}

	ArchivedDinner struct {
		Dinner
		ArchivedAt time.Time `json:"archived_at"`
		ArchivedBy string    `json:"archived_by"`
	}

	// ArchiveSummary is the list view of an archived dinner.
	ArchiveSummary struct {
		ID         string    `json:"id"`
		Date       string    `json:"date"`
		Theme      string    `json:"theme"`
		RSVPCount  int       `json:"rsvp_count"`
		ArchivedAt time.Time `json:"archived_at"`
	}
)

// ID returns the record id of the dinner held on date.
func ID(date time.Time) string {
	return "dinner_" + date.Format("20060102")
}

// New returns an empty dinner on date.
func New(date time.Time, defaultTime string) Dinner {
	if defaultTime == "" {
		defaultTime = DefaultTime
	}
	d := Dinner{
		ID:   ID(date),
		Date: date.Format(dateLayout),
		Time: defaultTime,
	}
	d.normalize()
	return d
}

// normalize makes sure every category and role list exists so clients never see null sections.
func (d *Dinner) normalize() {
	if d.Menu == nil {
		d.Menu = make(map[Category][]MenuItem, len(Categories))
	}
	for _, c := range Categories {
		if d.Menu[c] == nil {
			d.Menu[c] = []MenuItem{}
		}
	}
	if d.Volunteers == nil {
		d.Volunteers = make(map[Role][]Volunteer, len(Roles))
	}
	for _, r := range Roles {
		if d.Volunteers[r] == nil {
			d.Volunteers[r] = []Volunteer{}
		}
	}
	if d.RSVPs == nil {
		d.RSVPs = []RSVP{}
	}
	if d.Notes == nil {
		d.Notes = []Note{}
	}
}

// clone returns a deep copy of d.
func (d Dinner) clone() Dinner {
	c := d
	c.Menu = make(map[Category][]MenuItem, len(d.Menu))
	for k, v := range d.Menu {
		c.Menu[k] = append([]MenuItem{}, v...)
	}
	c.Volunteers = make(map[Role][]Volunteer, len(d.Volunteers))
	for k, v := range d.Volunteers {
		c.Volunteers[k] = append([]Volunteer{}, v...)
	}
	c.RSVPs = append([]RSVP{}, d.RSVPs...)
	c.Notes = append([]Note{}, d.Notes...)
	return c
}

// Day parses Date in loc.
func (d Dinner) Day(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, d.Date, loc)
}

// reschedule moves the dinner to date, keeping its content.
func (d *Dinner) reschedule(date time.Time) {
	d.ID = ID(date)
	d.Date = date.Format(dateLayout)
}

// MenuCount is the number of menu sign-ups across all categories.
func (d Dinner) MenuCount() int {
	var n int
	for _, items := range d.Menu {
		n += len(items)
	}
	return n
}

func (a ArchivedDinner) Summary() ArchiveSummary {
	return ArchiveSummary{
		ID:         a.ID,
		Date:       a.Date,
		Theme:      a.Theme,
		RSVPCount:  len(a.RSVPs),
		ArchivedAt: a.ArchivedAt,
	}
}
