package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPlan prices are whole currency units.
type SubscriptionPlan struct {
	ID           uint                        `json:"id" gorm:"primaryKey"`
	Name         string                      `json:"name" gorm:"not null"`
	MonthlyPrice int                         `json:"monthlyPrice" gorm:"not null"`
	YearlyPrice  int                         `json:"yearlyPrice" gorm:"not null"`
	MaxCameras   int                         `json:"maxCameras" gorm:"not null"`
	Features     datatypes.JSONSlice[string] `json:"features"`
	IsPopular    bool                        `json:"isPopular"`
	IsActive     bool                        `json:"isActive"`
	CreatedAt    time.Time                   `json:"createdAt"`
}

type SubscriptionPlanInsert struct {
	Name         string   `json:"name" zog:"name"`
	MonthlyPrice int      `json:"monthlyPrice" zog:"monthlyPrice"`
	YearlyPrice  int      `json:"yearlyPrice" zog:"yearlyPrice"`
	MaxCameras   int      `json:"maxCameras" zog:"maxCameras"`
	Features     []string `json:"features" zog:"features"`
	IsPopular    *bool    `json:"isPopular" zog:"isPopular"`
	IsActive     *bool    `json:"isActive" zog:"isActive"`
}

func (in SubscriptionPlanInsert) ToModel(now time.Time) SubscriptionPlan {
	features := make([]string, len(in.Features))
	copy(features, in.Features)
	return SubscriptionPlan{
		Name:         in.Name,
		MonthlyPrice: in.MonthlyPrice,
		YearlyPrice:  in.YearlyPrice,
		MaxCameras:   in.MaxCameras,
		Features:     datatypes.NewJSONSlice(features),
		IsPopular:    boolOr(in.IsPopular, false),
		IsActive:     boolOr(in.IsActive, true),
		CreatedAt:    now,
	}
}

type SubscriptionPlanPatch struct {
	Name         *string   `json:"name" binding:"omitnil,min=1"`
	MonthlyPrice *int      `json:"monthlyPrice" binding:"omitnil,min=0"`
	YearlyPrice  *int      `json:"yearlyPrice" binding:"omitnil,min=0"`
	MaxCameras   *int      `json:"maxCameras" binding:"omitnil,min=1"`
	Features     *[]string `json:"features"`
	IsPopular    *bool     `json:"isPopular"`
	IsActive     *bool     `json:"isActive"`
}

func (p SubscriptionPlanPatch) Apply(s *SubscriptionPlan) {
	setIf(&s.Name, p.Name)
	setIf(&s.MonthlyPrice, p.MonthlyPrice)
	setIf(&s.YearlyPrice, p.YearlyPrice)
	setIf(&s.MaxCameras, p.MaxCameras)
	if p.Features != nil {
		features := make([]string, len(*p.Features))
		copy(features, *p.Features)
		s.Features = datatypes.NewJSONSlice(features)
	}
	setIf(&s.IsPopular, p.IsPopular)
	setIf(&s.IsActive, p.IsActive)
}
