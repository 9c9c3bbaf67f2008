package models

import (
	"strings"
	"time"
	"unicode"
)

type ZoneType string

const (
	ZoneTypeEntrance   ZoneType = "entrance"
	ZoneTypeOffice     ZoneType = "office"
	ZoneTypeRestricted ZoneType = "restricted"
	ZoneTypeCommon     ZoneType = "common"
)

type Zone struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Type        ZoneType  `json:"type" gorm:"type:varchar(20);not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Slug is the identifier cameras use in assignedZone.
func (z Zone) Slug() string {
	return Slugify(z.Name)
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}

type ZoneInsert struct {
	Name        string  `json:"name" zog:"name"`
	Type        string  `json:"type" zog:"type"`
	Description *string `json:"description" zog:"description"`
}

func (in ZoneInsert) ToModel(now time.Time) Zone {
	return Zone{
		Name:        in.Name,
		Type:        ZoneType(in.Type),
		Description: stringOr(in.Description, ""),
		CreatedAt:   now,
	}
}

type ZonePatch struct {
	Name        *string   `json:"name" binding:"omitnil,min=1"`
	Type        *ZoneType `json:"type" binding:"omitnil,oneof=entrance office restricted common"`
	Description *string   `json:"description"`
}

func (p ZonePatch) Apply(z *Zone) {
	setIf(&z.Name, p.Name)
	setIf(&z.Type, p.Type)
	setIf(&z.Description, p.Description)
}
