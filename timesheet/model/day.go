package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DayNames are the lower-case day names in storage order. A week starts on Sunday.
var DayNames = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayIndex returns the storage index of a lower-case day name.
func DayIndex(name string) (int, bool) {
	name = strings.ToLower(name)
	for i, d := range DayNames {
		if d == name {
			return i, true
		}
	}
	return -1, false
}

type DayRecord struct {
	Client         string          `json:"client"`
	Start          string          `json:"start"`
	End            string          `json:"end"`
	Break          string          `json:"break"` // minutes
	POA            float64         `json:"poa"`
	OtherWork      float64         `json:"otherWork"`
	Total          float64         `json:"total"`
	Review         string          `json:"review"`
	NightOut       bool            `json:"nightOut"`
	ExpenseAmount  decimal.Decimal `json:"expenseAmount"`
	ExpenseReceipt string          `json:"expenseReceipt"`
	DriverRating   *int            `json:"driverRating"`
	DriverComments string          `json:"driverComments"`
}

// HasClient reports whether a client was entered for the day.
func (d DayRecord) HasClient() bool {
	return strings.TrimSpace(d.Client) != ""
}

// Week holds the seven day records of a timesheet, index 0 is Sunday.
type Week [7]DayRecord
