package timesheets

import (
	"acceptrec.co.uk/timesheets/timesheet/model"
	"github.com/shopspring/decimal"
)

type DayDTO struct {
	Client         string          `json:"client"`
	Start          string          `json:"start" binding:"omitempty,hhmm"`
	End            string          `json:"end" binding:"omitempty,hhmm"`
	Break          string          `json:"break" binding:"omitempty,minutes"`
	POA            float64         `json:"poa" binding:"min=0"`
	OtherWork      float64         `json:"otherWork" binding:"min=0"`
	Review         string          `json:"review"`
	NightOut       bool            `json:"nightOut"`
	ExpenseAmount  decimal.Decimal `json:"expenseAmount"`
	ExpenseReceipt string          `json:"expenseReceipt"`
	DriverRating   *int            `json:"driverRating" binding:"omitempty,min=1,max=10"`
	DriverComments string          `json:"driverComments"`
}

// Day totals are recomputed by the service from start, end and break.
func (d DayDTO) record() model.DayRecord {
	return model.DayRecord{
		Client:         d.Client,
		Start:          d.Start,
		End:            d.End,
		Break:          d.Break,
		POA:            d.POA,
		OtherWork:      d.OtherWork,
		Review:         d.Review,
		NightOut:       d.NightOut,
		ExpenseAmount:  d.ExpenseAmount,
		ExpenseReceipt: d.ExpenseReceipt,
		DriverRating:   d.DriverRating,
		DriverComments: d.DriverComments,
	}
}

func toWeek(days []DayDTO) model.Week {
	var week model.Week
	for i := 0; i < len(days) && i < len(week); i++ {
		week[i] = days[i].record()
	}
	return week
}

type CreateTimesheetDTO struct {
	UserID         string   `json:"userId"`
	DriverName     string   `json:"driverName"`
	WeekStartDate  string   `json:"weekStartDate" binding:"required,weekstart"`
	Days           []DayDTO `json:"days" binding:"required,len=7,dive"`
	DriverRating   *int     `json:"driverRating" binding:"omitempty,min=1,max=10"`
	DriverComments *string  `json:"driverComments"`
}

type UpdateTimesheetDTO struct {
	DriverName     *string  `json:"driverName"`
	Days           []DayDTO `json:"days" binding:"omitempty,len=7,dive"`
	DriverRating   *int     `json:"driverRating" binding:"omitempty,min=1,max=10"`
	DriverComments *string  `json:"driverComments"`
}

type SearchParams struct {
	Status        model.ApprovalStatus `form:"status" binding:"omitempty,oneof=draft pending_approval approved rejected"`
	WeekStartDate string               `form:"weekStartDate" binding:"omitempty,weekstart"`
	UserID        string               `form:"userId"`
}
