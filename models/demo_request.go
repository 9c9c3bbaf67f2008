package models

import "time"

type DemoRequest struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"not null"`
	Company   string    `json:"company" gorm:"not null"`
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type DemoRequestInsert struct {
	Name    string  `json:"name" zog:"name"`
	Email   string  `json:"email" zog:"email"`
	Company string  `json:"company" zog:"company"`
	Phone   *string `json:"phone" zog:"phone"`
	Message *string `json:"message" zog:"message"`
}

func (in DemoRequestInsert) ToModel(now time.Time) DemoRequest {
	return DemoRequest{
		Name:      in.Name,
		Email:     in.Email,
		Company:   in.Company,
		Phone:     stringOr(in.Phone, ""),
		Message:   stringOr(in.Message, ""),
		CreatedAt: now,
	}
}

type DemoRequestPatch struct {
	Name    *string `json:"name" binding:"omitnil,min=1"`
	Email   *string `json:"email" binding:"omitnil,email"`
	Company *string `json:"company" binding:"omitnil,min=1"`
	Phone   *string `json:"phone"`
	Message *string `json:"message"`
}

func (p DemoRequestPatch) Apply(d *DemoRequest) {
	setIf(&d.Name, p.Name)
	setIf(&d.Email, p.Email)
	setIf(&d.Company, p.Company)
	setIf(&d.Phone, p.Phone)
	setIf(&d.Message, p.Message)
}
