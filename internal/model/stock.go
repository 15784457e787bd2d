package model

import (
	"fmt"
	"time"
)

// StockRecord is one row of the foreign-stock results table.
type StockRecord struct {
	CountryCode string    `json:"countryCode"`
	StockName   string    `json:"stockName"`
	ThreeDigits string    `json:"threeDigits"`
	TwoDigits   string    `json:"twoDigits"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// StockPolicy keys stock rows by name and compares the published digits.
var StockPolicy = Policy[StockRecord]{
	Key: func(r StockRecord) string { return r.StockName },
	Equal: func(a, b StockRecord) bool {
		return a.CountryCode == b.CountryCode &&
			a.ThreeDigits == b.ThreeDigits &&
			a.TwoDigits == b.TwoDigits
	},
}

// Summary renders the record on one line.
func (r StockRecord) Summary() string {
	return fmt.Sprintf("%s (%s) %s/%s", r.StockName, r.CountryCode, r.ThreeDigits, r.TwoDigits)
}
