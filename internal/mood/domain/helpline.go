package domain

import "strings"

// DefaultHelplineCountry is used when no country, or an unknown one, is given.
const DefaultHelplineCountry = "US"

// HelplineRecord holds crisis support contacts for one country.
type HelplineRecord struct {
	Country    string `json:"country"`
	Name       string `json:"name"`
	Number     string `json:"number"`
	TextNumber string `json:"text_number,omitempty"`
	Website    string `json:"website"`
}

var helplines = map[string]HelplineRecord{
	"US": {
		Country:    "US",
		Name:       "988 Suicide & Crisis Lifeline",
		Number:     "988",
		TextNumber: "988",
		Website:    "https://988lifeline.org",
	},
	"UK": {
		Country:    "UK",
		Name:       "Samaritans",
		Number:     "116 123",
		TextNumber: "Text SHOUT to 85258",
		Website:    "https://www.samaritans.org",
	},
	"CA": {
		Country:    "CA",
		Name:       "9-8-8 Suicide Crisis Helpline",
		Number:     "988",
		TextNumber: "988",
		Website:    "https://988.ca",
	},
	"AU": {
		Country:    "AU",
		Name:       "Lifeline Australia",
		Number:     "13 11 14",
		TextNumber: "0477 13 11 14",
		Website:    "https://www.lifeline.org.au",
	},
	"IN": {
		Country:    "IN",
		Name:       "Tele MANAS",
		Number:     "14416",
		TextNumber: "",
		Website:    "https://telemanas.mohfw.gov.in",
	},
}

// HelplineInfo returns the helpline for the country code.
// Codes are matched case-insensitively; unknown codes fall back to the US record.
func HelplineInfo(country string) HelplineRecord {
	code := strings.ToUpper(strings.TrimSpace(country))
	if code == "GB" {
		code = "UK"
	}
	if record, ok := helplines[code]; ok {
		return record
	}
	return helplines[DefaultHelplineCountry]
}

// HelplineCountries returns the supported country codes in display order.
func HelplineCountries() []string {
	return []string{"US", "UK", "CA", "AU", "IN"}
}

// Helplines returns the whole directory in display order.
func Helplines() []HelplineRecord {
	codes := HelplineCountries()
	out := make([]HelplineRecord, 0, len(codes))
	for _, code := range codes {
		out = append(out, helplines[code])
	}
	return out
}
