package models

import "time"

type EmployeeStatus string

const (
	EmployeeStatusActive   EmployeeStatus = "active"
	EmployeeStatusInactive EmployeeStatus = "inactive"
)

// Employee is an attendance record. CheckIn, CheckOut and LastSeen are free
// text time-of-day strings as entered by HR.
type Employee struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Name       string         `json:"name" gorm:"not null"`
	EmployeeID string         `json:"employeeId" gorm:"column:employee_id;uniqueIndex;not null;size:64"`
	Department string         `json:"department" gorm:"not null"`
	CheckIn    string         `json:"checkIn"`
	CheckOut   string         `json:"checkOut"`
	LastSeen   string         `json:"lastSeen"`
	Status     EmployeeStatus `json:"status" gorm:"type:varchar(20);not null"`
	Date       string         `json:"date" gorm:"type:varchar(10);index"`
}

type EmployeeInsert struct {
	Name       string  `json:"name" zog:"name"`
	EmployeeID string  `json:"employeeId" zog:"employeeId"`
	Department string  `json:"department" zog:"department"`
	CheckIn    *string `json:"checkIn" zog:"checkIn"`
	CheckOut   *string `json:"checkOut" zog:"checkOut"`
	LastSeen   *string `json:"lastSeen" zog:"lastSeen"`
	Status     *string `json:"status" zog:"status"`
	Date       *string `json:"date" zog:"date"`
}

func (in EmployeeInsert) ToModel(now time.Time) Employee {
	return Employee{
		Name:       in.Name,
		EmployeeID: in.EmployeeID,
		Department: in.Department,
		CheckIn:    stringOr(in.CheckIn, ""),
		CheckOut:   stringOr(in.CheckOut, ""),
		LastSeen:   stringOr(in.LastSeen, ""),
		Status:     EmployeeStatus(stringOr(in.Status, string(EmployeeStatusActive))),
		Date:       stringOr(in.Date, Today(now)),
	}
}

type EmployeePatch struct {
	Name       *string         `json:"name" binding:"omitnil,min=1"`
	EmployeeID *string         `json:"employeeId" binding:"omitnil,min=1"`
	Department *string         `json:"department" binding:"omitnil,min=1"`
	CheckIn    *string         `json:"checkIn"`
	CheckOut   *string         `json:"checkOut"`
	LastSeen   *string         `json:"lastSeen"`
	Status     *EmployeeStatus `json:"status" binding:"omitnil,oneof=active inactive"`
	Date       *string         `json:"date" binding:"omitnil,datetime=2006-01-02"`
}

func (p EmployeePatch) Apply(e *Employee) {
	setIf(&e.Name, p.Name)
	setIf(&e.EmployeeID, p.EmployeeID)
	setIf(&e.Department, p.Department)
	setIf(&e.CheckIn, p.CheckIn)
	setIf(&e.CheckOut, p.CheckOut)
	setIf(&e.LastSeen, p.LastSeen)
	setIf(&e.Status, p.Status)
	setIf(&e.Date, p.Date)
}
