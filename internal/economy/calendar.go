package economy

import "fmt"

type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
	Winter Season = "winter"
)

var Seasons = []Season{Spring, Summer, Fall, Winter}

const (
	WeeksPerSeason = 12
	WeeksPerYear   = WeeksPerSeason * 4
)

// Date is a position on the game calendar. Week is 1-based within the season.
type Date struct {
	Week   int    `json:"week"`
	Season Season `json:"season"`
	Year   int    `json:"year"`
}

func StartDate() Date {
	return Date{Week: 1, Season: Spring, Year: 1}
}

// Next advances one week. The second return value reports a season
// boundary, which is the only point where the economy phase may change.
func (d Date) Next() (Date, bool) {
	if d.Week < WeeksPerSeason {
		d.Week++
		return d, false
	}
	d.Week = 1
	idx := seasonIndex(d.Season)
	if idx == len(Seasons)-1 {
		d.Season = Seasons[0]
		d.Year++
	} else {
		d.Season = Seasons[idx+1]
	}
	return d, true
}

// AbsoluteWeek counts weeks since the start of year 1, starting at 1.
func (d Date) AbsoluteWeek() int {
	return (d.Year-1)*WeeksPerYear + seasonIndex(d.Season)*WeeksPerSeason + d.Week
}

func (d Date) Valid() bool {
	return d.Year >= 1 && d.Week >= 1 && d.Week <= WeeksPerSeason && seasonIndex(d.Season) >= 0
}

func (d Date) String() string {
	return fmt.Sprintf("week %d, %s, year %d", d.Week, d.Season, d.Year)
}

func seasonIndex(s Season) int {
	for i, v := range Seasons {
		if v == s {
			return i
		}
	}
	return -1
}
