package models

import "time"

const SettingsID = 1

// SystemSettings is a singleton row. MaxLoginAttempts is stored and served
// but nothing enforces it.
type SystemSettings struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	IntrusionDetection bool      `json:"intrusionDetection"`
	MotionDetection    bool      `json:"motionDetection"`
	LoiteringDetection bool      `json:"loiteringDetection"`
	VehicleDetection   bool      `json:"vehicleDetection"`
	GlobalSensitivity  int       `json:"globalSensitivity"`
	EmailNotifications bool      `json:"emailNotifications"`
	SMSNotifications   bool      `json:"smsNotifications" gorm:"column:sms_notifications"`
	PushNotifications  bool      `json:"pushNotifications"`
	DataRetention      int       `json:"dataRetention"` // days
	MaxLoginAttempts   int       `json:"maxLoginAttempts"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func (SystemSettings) TableName() string {
	return "system_settings"
}

func DefaultSettings(now time.Time) SystemSettings {
	return SystemSettings{
		ID:                 SettingsID,
		IntrusionDetection: true,
		MotionDetection:    true,
		LoiteringDetection: true,
		VehicleDetection:   true,
		GlobalSensitivity:  DefaultCameraSensitivity,
		EmailNotifications: true,
		SMSNotifications:   false,
		PushNotifications:  true,
		DataRetention:      30,
		MaxLoginAttempts:   5,
		UpdatedAt:          now,
	}
}

// DetectionEnabled reports whether alerts of type t are switched on.
func (s SystemSettings) DetectionEnabled(t AlertType) bool {
	switch t {
	case AlertTypeIntrusion:
		return s.IntrusionDetection
	case AlertTypeMotion:
		return s.MotionDetection
	case AlertTypeLoitering:
		return s.LoiteringDetection
	case AlertTypeVehicle:
		return s.VehicleDetection
	}
	return false
}

type SettingsPatch struct {
	IntrusionDetection *bool `json:"intrusionDetection"`
	MotionDetection    *bool `json:"motionDetection"`
	LoiteringDetection *bool `json:"loiteringDetection"`
	VehicleDetection   *bool `json:"vehicleDetection"`
	GlobalSensitivity  *int  `json:"globalSensitivity" binding:"omitnil,min=1,max=10"`
	EmailNotifications *bool `json:"emailNotifications"`
	SMSNotifications   *bool `json:"smsNotifications"`
	PushNotifications  *bool `json:"pushNotifications"`
	DataRetention      *int  `json:"dataRetention" binding:"omitnil,min=1"`
	MaxLoginAttempts   *int  `json:"maxLoginAttempts" binding:"omitnil,min=1"`
}

func (p SettingsPatch) Apply(s *SystemSettings) {
	setIf(&s.IntrusionDetection, p.IntrusionDetection)
	setIf(&s.MotionDetection, p.MotionDetection)
	setIf(&s.LoiteringDetection, p.LoiteringDetection)
	setIf(&s.VehicleDetection, p.VehicleDetection)
	setIf(&s.GlobalSensitivity, p.GlobalSensitivity)
	setIf(&s.EmailNotifications, p.EmailNotifications)
	setIf(&s.SMSNotifications, p.SMSNotifications)
	setIf(&s.PushNotifications, p.PushNotifications)
	setIf(&s.DataRetention, p.DataRetention)
	setIf(&s.MaxLoginAttempts, p.MaxLoginAttempts)
}
