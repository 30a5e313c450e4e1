package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is a Postgres unique_violation,
// either raw from the pgx driver or translated by gorm.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func FindProfile(conn *gorm.DB, id string) (*Profile, error) {
	var record Profile
	if err := conn.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// CreateProfile inserts a fresh profile. A concurrent insert of the same id
// returns the existing row.
func CreateProfile(conn *gorm.DB, record *Profile) (*Profile, error) {
	if err := conn.Create(record).Error; err != nil {
		if IsUniqueViolation(err) {
			return FindProfile(conn, record.ID)
		}
		return nil, err
	}
	return record, nil
}

// IncrementCorrect adds one correct answer and stars to the profile in a single statement.
func IncrementCorrect(conn *gorm.DB, id string, stars int) (*Profile, error) {
	result := conn.Model(&Profile{}).Where("id = ?", id).Updates(map[string]any{
		"corrects":        gorm.Expr("corrects + 1"),
		"current_nectar":  gorm.Expr("current_nectar + ?", stars),
		"lifetime_nectar": gorm.Expr("lifetime_nectar + ?", stars),
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return FindProfile(conn, id)
}

func IncrementWins(conn *gorm.DB, id string) (*Profile, error) {
	result := conn.Model(&Profile{}).Where("id = ?", id).Update("wins", gorm.Expr("wins + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return FindProfile(conn, id)
}

func SetTitle(conn *gorm.DB, id, title string) error {
	return conn.Model(&Profile{}).Where("id = ?", id).Update("title", title).Error
}
