// Package zipcodes builds a postal-code → coordinate lookup table for one
// state from the GeoNames postal-code export.
package zipcodes

import "strings"

// Columns lists the GeoNames postal-code export columns in file order.
var Columns = []string{
	"country_code", "postal_code", "place_name",
	"admin_name1", "admin_code1",
	"admin_name2", "admin_code2",
	"admin_name3", "admin_code3",
	"latitude", "longitude", "accuracy",
}

// Record is one row of the GeoNames export.
type Record struct {
	CountryCode string
	PostalCode  string
	PlaceName   string
	AdminName1  string
	AdminCode1  string // state abbreviation, e.g. "GA"
	AdminName2  string
	AdminCode2  string
	AdminName3  string
	AdminCode3  string
	Latitude    float64
	Longitude   float64
	Accuracy    string
}

// Coord is the value stored per postal code in the lookup table.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PadPostalCode left-pads code with zeros to five characters. Longer codes
// are returned unchanged.
func PadPostalCode(code string) string {
	code = strings.TrimSpace(code)
	if len(code) >= 5 {
		return code
	}
	return strings.Repeat("0", 5-len(code)) + code
}
