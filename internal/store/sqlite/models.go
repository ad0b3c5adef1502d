package sqlite

import "time"

type AccountModel struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (AccountModel) TableName() string { return "accounts" }

type ProfileModel struct {
	ID           string   `gorm:"primaryKey"`
	AccountID    string   `gorm:"not null;index"`
	Name         string   `gorm:"not null"`
	Age          int      `gorm:"not null"`
	City         string   `gorm:"not null"`
	Lat          float64  `gorm:"not null"`
	Lng          float64  `gorm:"not null"`
	Occupation   string   `gorm:"not null"`
	Hobbies      []string `gorm:"serializer:json;not null"`
	Personality  *string
	HeightCM     int    `gorm:"column:height_cm;not null"`
	Bio          string `gorm:"not null"`
	IsFake       bool   `gorm:"not null;default:false"`
	SourceFolder string `gorm:"not null;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ProfileModel) TableName() string { return "profiles" }

type PhotoModel struct {
	ID        string `gorm:"primaryKey"`
	ProfileID string `gorm:"not null;index"`
	URL       string `gorm:"column:url;not null"`
	Role      string `gorm:"not null"`
	Position  int    `gorm:"not null"`
	CreatedAt time.Time
}

func (PhotoModel) TableName() string { return "photos" }
