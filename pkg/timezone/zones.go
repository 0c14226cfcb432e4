package timezone

import (
	"fmt"
	"time"
)

// Zone describes one selectable time zone
type Zone struct {
	Label         string  `json:"label"`
	ID            string  `json:"timeZoneId"`
	Region        string  `json:"region"`
	BaseUTCOffset float64 `json:"baseUtcOffset"` // hours, standard time
}

// Regions in display order
const (
	RegionUniversal = "Universal Time"
	RegionAmericas  = "Americas"
	RegionEurope    = "Europe"
	RegionAfricaME  = "Africa & Middle East"
	RegionAsia      = "Asia"
	RegionOceania   = "Oceania"
)

// UTC is used whenever a stored or configured zone cannot be resolved
var UTC = Zone{Label: "Coordinated Universal Time", ID: "UTC", Region: RegionUniversal, BaseUTCOffset: 0}

// Zones is the whitelist of zones a clock slot may show
var Zones = []Zone{
	UTC,
	{Label: "Greenwich Mean Time", ID: "Etc/GMT", Region: RegionUniversal, BaseUTCOffset: 0},

	{Label: "Alaska (Anchorage)", ID: "America/Anchorage", Region: RegionAmericas, BaseUTCOffset: -9},
	{Label: "US Pacific (Los Angeles)", ID: "America/Los_Angeles", Region: RegionAmericas, BaseUTCOffset: -8},
	{Label: "US Mountain (Denver)", ID: "America/Denver", Region: RegionAmericas, BaseUTCOffset: -7},
	{Label: "US Central (Chicago)", ID: "America/Chicago", Region: RegionAmericas, BaseUTCOffset: -6},
	{Label: "US Eastern (New York)", ID: "America/New_York", Region: RegionAmericas, BaseUTCOffset: -5},
	{Label: "Canada (Toronto)", ID: "America/Toronto", Region: RegionAmericas, BaseUTCOffset: -5},
	{Label: "Mexico (Mexico City)", ID: "America/Mexico_City", Region: RegionAmericas, BaseUTCOffset: -6},
	{Label: "Brazil (Sao Paulo)", ID: "America/Sao_Paulo", Region: RegionAmericas, BaseUTCOffset: -3},
	{Label: "Argentina (Buenos Aires)", ID: "America/Argentina/Buenos_Aires", Region: RegionAmericas, BaseUTCOffset: -3},

	{Label: "UK (London)", ID: "Europe/London", Region: RegionEurope, BaseUTCOffset: 0},
	{Label: "France (Paris)", ID: "Europe/Paris", Region: RegionEurope, BaseUTCOffset: 1},
	{Label: "Germany (Berlin)", ID: "Europe/Berlin", Region: RegionEurope, BaseUTCOffset: 1},
	{Label: "Italy (Rome)", ID: "Europe/Rome", Region: RegionEurope, BaseUTCOffset: 1},
	{Label: "Spain (Madrid)", ID: "Europe/Madrid", Region: RegionEurope, BaseUTCOffset: 1},
	{Label: "Switzerland (Zurich)", ID: "Europe/Zurich", Region: RegionEurope, BaseUTCOffset: 1},
	{Label: "Russia (Moscow)", ID: "Europe/Moscow", Region: RegionEurope, BaseUTCOffset: 3},

	{Label: "Egypt (Cairo)", ID: "Africa/Cairo", Region: RegionAfricaME, BaseUTCOffset: 2},
	{Label: "Kenya (Nairobi)", ID: "Africa/Nairobi", Region: RegionAfricaME, BaseUTCOffset: 3},
	{Label: "Saudi Arabia (Riyadh)", ID: "Asia/Riyadh", Region: RegionAfricaME, BaseUTCOffset: 3},
	{Label: "UAE (Dubai)", ID: "Asia/Dubai", Region: RegionAfricaME, BaseUTCOffset: 4},
	{Label: "Iran (Tehran)", ID: "Asia/Tehran", Region: RegionAfricaME, BaseUTCOffset: 3.5},

	{Label: "India (New Delhi)", ID: "Asia/Kolkata", Region: RegionAsia, BaseUTCOffset: 5.5},
	{Label: "Bangladesh (Dhaka)", ID: "Asia/Dhaka", Region: RegionAsia, BaseUTCOffset: 6},
	{Label: "Thailand (Bangkok)", ID: "Asia/Bangkok", Region: RegionAsia, BaseUTCOffset: 7},
	{Label: "Vietnam (Ho Chi Minh)", ID: "Asia/Ho_Chi_Minh", Region: RegionAsia, BaseUTCOffset: 7},
	{Label: "Indonesia (Jakarta)", ID: "Asia/Jakarta", Region: RegionAsia, BaseUTCOffset: 7},
	{Label: "Malaysia (Kuala Lumpur)", ID: "Asia/Kuala_Lumpur", Region: RegionAsia, BaseUTCOffset: 8},
	{Label: "Singapore", ID: "Asia/Singapore", Region: RegionAsia, BaseUTCOffset: 8},
	{Label: "China (Beijing)", ID: "Asia/Shanghai", Region: RegionAsia, BaseUTCOffset: 8},
	{Label: "Hong Kong", ID: "Asia/Hong_Kong", Region: RegionAsia, BaseUTCOffset: 8},
	{Label: "Taiwan (Taipei)", ID: "Asia/Taipei", Region: RegionAsia, BaseUTCOffset: 8},
	{Label: "Philippines (Manila)", ID: "Asia/Manila", Region: RegionAsia, BaseUTCOffset: 8},
	{Label: "Korea (Seoul)", ID: "Asia/Seoul", Region: RegionAsia, BaseUTCOffset: 9},
	{Label: "Japan (Tokyo)", ID: "Asia/Tokyo", Region: RegionAsia, BaseUTCOffset: 9},

	{Label: "Australia (Perth)", ID: "Australia/Perth", Region: RegionOceania, BaseUTCOffset: 8},
	{Label: "Australia (Adelaide)", ID: "Australia/Adelaide", Region: RegionOceania, BaseUTCOffset: 9.5},
	{Label: "Australia (Sydney)", ID: "Australia/Sydney", Region: RegionOceania, BaseUTCOffset: 10},
	{Label: "Australia (Melbourne)", ID: "Australia/Melbourne", Region: RegionOceania, BaseUTCOffset: 10},
	{Label: "Australia (Brisbane)", ID: "Australia/Brisbane", Region: RegionOceania, BaseUTCOffset: 10},
	{Label: "New Zealand (Auckland)", ID: "Pacific/Auckland", Region: RegionOceania, BaseUTCOffset: 12},
}

// Map of common Windows timezone names to IANA timezone names
var windowsToIANA = map[string]string{
	"Pacific Standard Time":        "America/Los_Angeles",
	"Mountain Standard Time":       "America/Denver",
	"Central Standard Time":        "America/Chicago",
	"Eastern Standard Time":        "America/New_York",
	"Atlantic Standard Time":       "America/Halifax",
	"Alaskan Standard Time":        "America/Anchorage",
	"Hawaiian Standard Time":       "Pacific/Honolulu",
	"GMT Standard Time":            "Europe/London",
	"Central Europe Standard Time": "Europe/Paris",
	"W. Europe Standard Time":      "Europe/Berlin",
	"Russian Standard Time":        "Europe/Moscow",
	"China Standard Time":          "Asia/Shanghai",
	"Tokyo Standard Time":          "Asia/Tokyo",
	"Korea Standard Time":          "Asia/Seoul",
	"Singapore Standard Time":      "Asia/Singapore",
	"India Standard Time":          "Asia/Kolkata",
	"AUS Eastern Standard Time":    "Australia/Sydney",
	"New Zealand Standard Time":    "Pacific/Auckland",
	"UTC":                          "UTC",
}

// FromWindows maps a Windows zone name to its IANA id, returning name unchanged if unknown
func FromWindows(name string) string {
	if iana, ok := windowsToIANA[name]; ok {
		return iana
	}
	return name
}

// Find looks a zone up in the whitelist
func Find(id string) (Zone, bool) {
	for _, z := range Zones {
		if z.ID == id {
			return z, true
		}
	}
	return Zone{}, false
}

// Validate checks id against the whitelist and the tz database
func Validate(id string) error {
	if _, ok := Find(FromWindows(id)); !ok {
		return fmt.Errorf("time zone %q is not supported", id)
	}
	if _, err := time.LoadLocation(FromWindows(id)); err != nil {
		return fmt.Errorf("time zone %q: %w", id, err)
	}
	return nil
}

// Resolve returns the whitelisted zone and its location, falling back to UTC
func Resolve(id string) (Zone, *time.Location, bool) {
	id = FromWindows(id)
	z, ok := Find(id)
	if !ok {
		return UTC, time.UTC, false
	}
	loc, err := time.LoadLocation(z.ID)
	if err != nil {
		return UTC, time.UTC, false
	}
	return z, loc, true
}

// ByRegion groups the whitelist by region, keeping list order
func ByRegion() ([]string, map[string][]Zone) {
	order := []string{}
	groups := map[string][]Zone{}
	for _, z := range Zones {
		if _, ok := groups[z.Region]; !ok {
			order = append(order, z.Region)
		}
		groups[z.Region] = append(groups[z.Region], z)
	}
	return order, groups
}
