package model

import "time"

type User struct {
	ID       string `gorm:"primaryKey;type:text"`
	Email    string `gorm:"uniqueIndex"`
	Username string `gorm:"uniqueIndex;not null;size:30"`
	Password string
	Role     string `gorm:"not null;default:member;size:16"`
	AvatarID *string
	// Apple Sign-In identity; the refresh token is kept only so it can be
	// revoked on account deletion.
	AppleUserID       *string `gorm:"uniqueIndex"`
	AppleRefreshToken string
	CountryCode       string `gorm:"size:2"`
	CountryFlag       string `gorm:"size:8"`
	Onboarded         bool   `gorm:"default:false;not null"`
	LastLogin         time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Avatar is the canonical avatar record. Responses always join through here;
// no denormalized avatar_url is stored or emitted anywhere.
type Avatar struct {
	ID        string `gorm:"primaryKey;type:text"`
	Name      string `gorm:"not null;size:64"`
	ImagePath string `gorm:"not null"`
	SortOrder int    `gorm:"default:0;not null"`
	CreatedAt time.Time
}
