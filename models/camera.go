package models

import (
	"time"
)

type CameraStatus string

const (
	CameraStatusActive      CameraStatus = "active"
	CameraStatusMaintenance CameraStatus = "maintenance"
	CameraStatusOffline     CameraStatus = "offline"
)

const DefaultCameraSensitivity = 7

type Camera struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	Name         string       `json:"name" gorm:"not null"`
	Location     string       `json:"location" gorm:"not null"`
	IP           string       `json:"ip" gorm:"column:ip;not null"`
	StreamURL    string       `json:"streamUrl"`
	Status       CameraStatus `json:"status" gorm:"type:varchar(20);not null"`
	AssignedZone string       `json:"assignedZone" gorm:"index"` // zone slug, not a foreign key
	Sensitivity  int          `json:"sensitivity" gorm:"not null"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// RTSPURL returns the configured stream URL or the conventional RTSP address
// of the camera.
func (c Camera) RTSPURL() string {
	if c.StreamURL != "" {
		return c.StreamURL
	}
	return "rtsp://" + c.IP + ":554/"
}

type CameraInsert struct {
	Name         string  `json:"name" zog:"name"`
	Location     string  `json:"location" zog:"location"`
	IP           string  `json:"ip" zog:"ip"`
	StreamURL    *string `json:"streamUrl" zog:"streamUrl"`
	Status       *string `json:"status" zog:"status"`
	AssignedZone *string `json:"assignedZone" zog:"assignedZone"`
	Sensitivity  *int    `json:"sensitivity" zog:"sensitivity"`
}

func (in CameraInsert) ToModel(now time.Time) Camera {
	return Camera{
		Name:         in.Name,
		Location:     in.Location,
		IP:           in.IP,
		StreamURL:    stringOr(in.StreamURL, ""),
		Status:       CameraStatus(stringOr(in.Status, string(CameraStatusActive))),
		AssignedZone: stringOr(in.AssignedZone, ""),
		Sensitivity:  intOr(in.Sensitivity, DefaultCameraSensitivity),
		CreatedAt:    now,
	}
}

type CameraPatch struct {
	Name         *string       `json:"name" binding:"omitnil,min=1"`
	Location     *string       `json:"location" binding:"omitnil,min=1"`
	IP           *string       `json:"ip" binding:"omitnil,min=1"`
	StreamURL    *string       `json:"streamUrl"`
	Status       *CameraStatus `json:"status" binding:"omitnil,oneof=active maintenance offline"`
	AssignedZone *string       `json:"assignedZone"`
	Sensitivity  *int          `json:"sensitivity" binding:"omitnil,min=1,max=10"`
}

func (p CameraPatch) Apply(c *Camera) {
	setIf(&c.Name, p.Name)
	setIf(&c.Location, p.Location)
	setIf(&c.IP, p.IP)
	setIf(&c.StreamURL, p.StreamURL)
	setIf(&c.Status, p.Status)
	setIf(&c.AssignedZone, p.AssignedZone)
	setIf(&c.Sensitivity, p.Sensitivity)
}
