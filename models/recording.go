package models

import "time"

type RecordingQuality string

const (
	RecordingQualityLow    RecordingQuality = "low"
	RecordingQualityMedium RecordingQuality = "medium"
	RecordingQualityHigh   RecordingQuality = "high"
)

type Recording struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	CameraID      uint             `json:"cameraId" gorm:"index;not null"` // soft reference
	StartTime     time.Time        `json:"startTime" gorm:"index;not null"`
	Duration      int              `json:"duration"` // seconds
	FileSize      int64            `json:"fileSize"` // bytes
	Quality       RecordingQuality `json:"quality" gorm:"type:varchar(10);not null"`
	HasMotion     bool             `json:"hasMotion"`
	ThumbnailPath string           `json:"thumbnailPath"`
	FilePath      string           `json:"filePath" gorm:"not null"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type RecordingInsert struct {
	CameraID      int        `json:"cameraId" zog:"cameraId"`
	StartTime     *time.Time `json:"startTime" zog:"startTime"`
	Duration      int        `json:"duration" zog:"duration"`
	FileSize      int        `json:"fileSize" zog:"fileSize"`
	Quality       *string    `json:"quality" zog:"quality"`
	HasMotion     *bool      `json:"hasMotion" zog:"hasMotion"`
	ThumbnailPath *string    `json:"thumbnailPath" zog:"thumbnailPath"`
	FilePath      string     `json:"filePath" zog:"filePath"`
}

func (in RecordingInsert) ToModel(now time.Time) Recording {
	start := now
	if in.StartTime != nil {
		start = *in.StartTime
	}
	return Recording{
		CameraID:      uint(in.CameraID),
		StartTime:     start,
		Duration:      in.Duration,
		FileSize:      int64(in.FileSize),
		Quality:       RecordingQuality(stringOr(in.Quality, string(RecordingQualityMedium))),
		HasMotion:     boolOr(in.HasMotion, false),
		ThumbnailPath: stringOr(in.ThumbnailPath, ""),
		FilePath:      in.FilePath,
		CreatedAt:     now,
	}
}

type RecordingPatch struct {
	Duration      *int              `json:"duration" binding:"omitnil,min=0"`
	FileSize      *int64            `json:"fileSize" binding:"omitnil,min=0"`
	Quality       *RecordingQuality `json:"quality" binding:"omitnil,oneof=low medium high"`
	HasMotion     *bool             `json:"hasMotion"`
	ThumbnailPath *string           `json:"thumbnailPath"`
	FilePath      *string           `json:"filePath" binding:"omitnil,min=1"`
}

func (p RecordingPatch) Apply(r *Recording) {
	setIf(&r.Duration, p.Duration)
	setIf(&r.FileSize, p.FileSize)
	setIf(&r.Quality, p.Quality)
	setIf(&r.HasMotion, p.HasMotion)
	setIf(&r.ThumbnailPath, p.ThumbnailPath)
	setIf(&r.FilePath, p.FilePath)
}

type RecordingFilter struct {
	CameraID  *uint
	From      *time.Time
	To        *time.Time
	Quality   RecordingQuality
	HasMotion *bool
}

func (f RecordingFilter) Match(r Recording) bool {
	if f.CameraID != nil && r.CameraID != *f.CameraID {
		return false
	}
	if f.From != nil && r.StartTime.Before(*f.From) {
		return false
	}
	if f.To != nil && r.StartTime.After(*f.To) {
		return false
	}
	if f.Quality != "" && r.Quality != f.Quality {
		return false
	}
	if f.HasMotion != nil && r.HasMotion != *f.HasMotion {
		return false
	}
	return true
}
