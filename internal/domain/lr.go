package domain

import (
	"time"
)

// LRFields is the structured result of reading a free-text lorry receipt
// message. Every field is always present, empty when unknown.
type LRFields struct {
	TruckNumber string `json:"truckNumber"`
	From        string `json:"from"`
	To          string `json:"to"`
	Weight      string `json:"weight"`
	Description string `json:"description"`
	Name        string `json:"name"`
}

// LRRecord is a logged lorry receipt.
type LRRecord struct {
	ID          int        `gorm:"primaryKey" json:"id"`
	Date        string     `gorm:"type:varchar(10);not null" json:"date"`
	Time        string     `gorm:"type:varchar(8);not null" json:"time"`
	TruckNumber string     `gorm:"type:varchar(32);not null" json:"truck_number"`
	From        string     `gorm:"type:varchar(80)" json:"from"`
	To          string     `gorm:"type:varchar(80);not null" json:"to"`
	Weight      string     `gorm:"type:varchar(32);not null" json:"weight"`
	Description string     `gorm:"type:varchar(160);not null" json:"description"`
	Name        string     `gorm:"type:varchar(80)" json:"name"`
	Template    int        `gorm:"type:int;not null" json:"template"`
	Mobile      string     `gorm:"type:varchar(20);not null;index" json:"mobile"`
	Cancelled   bool       `gorm:"not null;default:false" json:"cancelled"`
	Status      string     `gorm:"type:varchar(40)" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`

	// Sheet and Row locate the record inside a workbook backed store.
	Sheet string `gorm:"-" json:"-"`
	Row   int    `gorm:"-" json:"-"`
}

// NewLRRecord stamps extracted fields with the submission time in IST.
func NewLRRecord(fields LRFields, mobile string, template int, now time.Time) LRRecord {
	date, clock := FormatIST(now)
	return LRRecord{
		Date:        date,
		Time:        clock,
		TruckNumber: fields.TruckNumber,
		From:        fields.From,
		To:          fields.To,
		Weight:      fields.Weight,
		Description: fields.Description,
		Name:        fields.Name,
		Template:    template,
		Mobile:      mobile,
		CreatedAt:   now.UTC(),
	}
}

// Fields returns the extracted part of the record.
func (r LRRecord) Fields() LRFields {
	return LRFields{
		TruckNumber: r.TruckNumber,
		From:        r.From,
		To:          r.To,
		Weight:      r.Weight,
		Description: r.Description,
		Name:        r.Name,
	}
}

// CancelStatus returns the status column value after cancellation.
func CancelStatus(status string) string {
	if status == "" {
		return "Cancelled"
	}
	if containsFold(status, "cancel") {
		return status
	}
	return status + " (Cancelled)"
}
