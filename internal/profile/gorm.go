package profile

import (
	"context"
	"errors"
	"fmt"

	"spelling-hive/internal/db"
	"spelling-hive/internal/words"

	"gorm.io/gorm"
)

type GormStore struct {
	conn *gorm.DB
}

func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{conn: conn}
}

func (s *GormStore) Get(ctx context.Context, userID string) (Profile, error) {
	record, err := db.FindProfile(s.conn.WithContext(ctx), userID)
	if err != nil {
		return Profile{}, wrapNotFound(err, userID)
	}
	return fromRecord(record), nil
}

func (s *GormStore) Ensure(ctx context.Context, userID, name string) (Profile, error) {
	conn := s.conn.WithContext(ctx)
	record, err := db.FindProfile(conn, userID)
	if err == nil {
		return fromRecord(record), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, err
	}
	record, err = db.CreateProfile(conn, &db.Profile{
		ID:       userID,
		Username: name,
		Title:    words.Title(0, 0),
	})
	if err != nil {
		return Profile{}, err
	}
	return fromRecord(record), nil
}

func (s *GormStore) ApplyCorrectAnswer(ctx context.Context, userID string, stars int) error {
	conn := s.conn.WithContext(ctx)
	record, err := db.IncrementCorrect(conn, userID, stars)
	if err != nil {
		return wrapNotFound(err, userID)
	}
	return s.refreshTitle(conn, record)
}

func (s *GormStore) ApplyWin(ctx context.Context, userID string) error {
	conn := s.conn.WithContext(ctx)
	record, err := db.IncrementWins(conn, userID)
	if err != nil {
		return wrapNotFound(err, userID)
	}
	return s.refreshTitle(conn, record)
}

func (s *GormStore) refreshTitle(conn *gorm.DB, record *db.Profile) error {
	title := words.Title(record.Corrects, record.Wins)
	if title == record.Title {
		return nil
	}
	return db.SetTitle(conn, record.ID, title)
}

func fromRecord(record *db.Profile) Profile {
	return Profile{
		ID:             record.ID,
		DisplayName:    DisplayName(record.Username, record.Email),
		Title:          record.Title,
		Corrects:       record.Corrects,
		Wins:           record.Wins,
		Nectar:         record.CurrentNectar,
		LifetimeNectar: record.LifetimeNectar,
		AvatarURL:      record.AvatarURL,
	}
}

func wrapNotFound(err error, userID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	return err
}
