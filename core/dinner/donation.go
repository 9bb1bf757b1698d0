package dinner

import (
	"math"

	"github.com/trezcool/potluck/core/settings"
)

// Party is the head count of one RSVP.
type Party struct {
	Adults   int `json:"adults" query:"adults" validate:"min=0"`
	Teens    int `json:"teens" query:"teens" validate:"min=0"`
	Children int `json:"children" query:"children" validate:"min=0"`
	Under5   int `json:"under5" query:"under5" validate:"min=0"`
}

func (p Party) Total() int {
	return p.Adults + p.Teens + p.Children + p.Under5
}

// Donation returns the recommended donation for p, rounded to cents.
func Donation(rates settings.Rates, p Party) float64 {
	amount := float64(p.Adults)*rates.Adults +
		float64(p.Teens)*rates.Teens +
		float64(p.Children)*rates.Children +
		float64(p.Under5)*rates.Under5
	return math.Round(amount*100) / 100
}

// RSVPSummary aggregates the RSVPs of a dinner.
type RSVPSummary struct {
	Count    int     `json:"count"`
	Adults   int     `json:"adults"`
	Teens    int     `json:"teens"`
	Children int     `json:"children"`
	Under5   int     `json:"under5"`
	People   int     `json:"people"`
	Donation float64 `json:"donation"`
}

func Summarize(rsvps []RSVP, rates settings.Rates) RSVPSummary {
	var s RSVPSummary
	var total Party
	for _, r := range rsvps {
		total.Adults += r.Adults
		total.Teens += r.Teens
		total.Children += r.Children
		total.Under5 += r.Under5
	}
	s.Count = len(rsvps)
	s.Adults = total.Adults
	s.Teens = total.Teens
	s.Children = total.Children
	s.Under5 = total.Under5
	s.People = total.Total()
	s.Donation = Donation(rates, total)
	return s
}
