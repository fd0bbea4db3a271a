package storage

import (
	"time"

	"github.com/renato0307/modshell/internal/domain"
)

// ModModel is the GORM model for the installed mods table
type ModModel struct {
	Author    string          `gorm:"not null;default:''"`
	Category  string          `gorm:"not null;default:'';index:idx_category"`
	CreatedAt time.Time
	Hash      string          `gorm:"primaryKey"`
	Manifest  domain.Manifest `gorm:"serializer:json;type:text;not null"`
	Meta      domain.Meta     `gorm:"serializer:json;type:text;not null"`
	Name      string          `gorm:"not null;index:idx_name"`
	Path      string          `gorm:"not null"`
	UpdatedAt time.Time
	Version   string          `gorm:"not null;default:''"`
}

// TableName specifies the table name for GORM
func (ModModel) TableName() string { return "mods" }

// ProfileModel is the GORM model for profiles
type ProfileModel struct {
	CreatedAt time.Time
	IsCurrent bool   `gorm:"not null;default:false"`
	Name      string `gorm:"primaryKey"`
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (ProfileModel) TableName() string { return "profiles" }

// ProfileModModel is one entry of a profile's load order
type ProfileModModel struct {
	CreatedAt      time.Time
	Enabled        bool     `gorm:"not null;default:false"`
	EnabledOptions []string `gorm:"serializer:json;type:text"`
	ModHash        string   `gorm:"primaryKey"`
	Position       int      `gorm:"not null;default:0;index:idx_profile_position"`
	ProfileName    string   `gorm:"primaryKey;index:idx_profile_position"`
	UpdatedAt      time.Time
}

// TableName specifies the table name for GORM
func (ProfileModModel) TableName() string { return "profile_mods" }
