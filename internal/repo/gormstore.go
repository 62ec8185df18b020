package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

// counterName is the single counters row backing deal id assignment.
const counterName = "deals"

// GormStore persists the ledger in SQLite through GORM. It implements the
// same Store contract as FileStore; ids come from the counters table and
// are assigned inside the insert transaction so they stay monotonic even
// across deletes.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an opened, migrated *gorm.DB (see OpenSQLite and
// AutoMigrate) as a ledger Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Load returns deals for guildID ("" = all), oldest first.
func (s *GormStore) Load(ctx context.Context, guildID string) ([]domain.Deal, error) {
	q := s.db.WithContext(ctx).Order("created_at asc, id asc")
	if guildID != "" {
		q = q.Where("guild_id = ?", guildID)
	}
	var out []domain.Deal
	err := q.Find(&out).Error
	return out, err
}

// Append inserts d with the next counter id, all in one transaction.
func (s *GormStore) Append(ctx context.Context, d *domain.Deal) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c domain.Counter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", counterName).
			First(&c).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c = domain.Counter{Name: counterName, NextID: 1}
			if err := tx.Create(&c).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		d.ID = c.NextID
		if err := tx.Create(d).Error; err != nil {
			d.ID = 0
			return err
		}
		return tx.Model(&domain.Counter{}).
			Where("name = ?", counterName).
			Update("next_id", c.NextID+1).Error
	})
}

// Update rewrites the full row matching d.ID. Select("*") forces zero
// values (nil kW, cleared loss reason) to be written too.
func (s *GormStore) Update(ctx context.Context, d *domain.Deal) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Deal{}).
		Where("id = ?", d.ID).
		Select("*").
		Updates(d)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove hard-deletes the deal with the given id within guildID.
func (s *GormStore) Remove(ctx context.Context, guildID string, id int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND guild_id = ?", id, guildID).
		Delete(&domain.Deal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear hard-deletes every deal for guildID and reports the count. The
// counter row is untouched so ids never recycle.
func (s *GormStore) Clear(ctx context.Context, guildID string) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Delete(&domain.Deal{})
	return res.RowsAffected, res.Error
}
