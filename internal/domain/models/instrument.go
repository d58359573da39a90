package models

import "time"

// Instrument is a listed security carrying a recurring shareholder-benefit
// rights date.
type Instrument struct {
	Code        string
	Name        string
	RightsMonth int // calendar month (1-12) of the benefit rights cutoff
	RightsDate  time.Time
	Benefit     string // benefit description
	MinShares   int    // minimum share count to qualify
	UpdatedAt   time.Time
}
