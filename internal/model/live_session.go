package model

import "time"

// LiveSession is a scheduled live transcription session
type LiveSession struct {
	ID           string      `gorm:"primaryKey;size:36" json:"id"`
	UserID       string      `gorm:"index;size:16;not null" json:"-"`
	Title        string      `gorm:"not null" json:"title"`
	Description  string      `json:"description"`
	StartsAt     time.Time   `gorm:"index;not null" json:"startsAt"`
	Duration     int         `gorm:"not null" json:"duration"` // minutes
	Participants StringSlice `json:"participants"`
	Public       bool        `gorm:"not null" json:"isPublic"`
	CreatedAt    time.Time   `json:"createdAt"`
}
