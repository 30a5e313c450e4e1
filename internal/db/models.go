package db

import (
	"time"

	"gorm.io/datatypes"
)

type Profile struct {
	ID             string    `gorm:"primaryKey;size:128"`
	Username       string    `gorm:"size:64"`
	Email          string    `gorm:"size:255"`
	Title          string    `gorm:"size:32;not null;default:Newbee"`
	Corrects       int       `gorm:"not null;default:0"`
	Wins           int       `gorm:"not null;default:0"`
	CurrentNectar  int       `gorm:"not null;default:0"`
	LifetimeNectar int       `gorm:"not null;default:0"`
	AvatarURL      string    `gorm:"size:512"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// RoomRecord mirrors the latest committed room document.
type RoomRecord struct {
	ID         string         `gorm:"primaryKey;size:64"`
	HostID     string         `gorm:"size:128;not null"`
	Visibility string         `gorm:"size:16;not null;index"`
	JoinCode   string         `gorm:"size:12;index"`
	Difficulty string         `gorm:"size:32;not null;index"`
	Status     string         `gorm:"size:32;not null"`
	Document   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

type RoomEvent struct {
	ID        uint           `gorm:"primaryKey"`
	RoomID    string         `gorm:"size:64;index;not null"`
	PlayerID  *string        `gorm:"size:128;index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    string    `gorm:"size:64;index;not null"`
	Sender    string    `gorm:"size:64;not null"`
	Text      string    `gorm:"size:280;not null"`
	Kind      string    `gorm:"size:16;not null"`
	SentAt    time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type WordEntry struct {
	ID         uint      `gorm:"primaryKey"`
	Difficulty string    `gorm:"size:32;not null;uniqueIndex:idx_word_entries_difficulty_text"`
	Text       string    `gorm:"size:128;not null;uniqueIndex:idx_word_entries_difficulty_text"`
	CreatedAt  time.Time `gorm:"not null"`
}
