package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Prizes holds the numbers published for one lottery draw.
type Prizes struct {
	FirstPrize string   `json:"firstPrize"`
	ThreeFront []string `json:"three_front"`
	ThreeEnd   []string `json:"three_end"`
	TwoEnd     string   `json:"two_end"`
}

// LotteryRecord is the result of a single draw, keyed by its date.
type LotteryRecord struct {
	Date        string    `json:"date"`
	Prizes      Prizes    `json:"prizes"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// LotteryPolicy keys draws by date and compares all four prize fields.
var LotteryPolicy = Policy[LotteryRecord]{
	Key: func(r LotteryRecord) string { return r.Date },
	Equal: func(a, b LotteryRecord) bool {
		return a.Prizes.FirstPrize == b.Prizes.FirstPrize &&
			slices.Equal(a.Prizes.ThreeFront, b.Prizes.ThreeFront) &&
			slices.Equal(a.Prizes.ThreeEnd, b.Prizes.ThreeEnd) &&
			a.Prizes.TwoEnd == b.Prizes.TwoEnd
	},
}

// Summary renders the draw on one line.
func (r LotteryRecord) Summary() string {
	return fmt.Sprintf("%s first=%s front3=%s back3=%s back2=%s", r.Date, r.Prizes.FirstPrize,
		strings.Join(r.Prizes.ThreeFront, ","), strings.Join(r.Prizes.ThreeEnd, ","), r.Prizes.TwoEnd)
}
