package store

import (
	"context"
	"errors"
	"time"

	"vaanikaam/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OtpStore struct{ db *gorm.DB }

func (s *Store) OtpChallenges() *OtpStore { return &OtpStore{db: s.DB} }

// Upsert persists the challenge, superseding any prior live challenge for the
// same (phone, purpose). The conflict target is the composite unique index,
// so two concurrent issues leave exactly one row.
func (o *OtpStore) Upsert(ctx context.Context, c *domain.OtpChallenge) error {
	now := time.Now().UTC()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	return o.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}, {Name: "purpose"}},
		DoUpdates: clause.AssignmentColumns([]string{"code_hash", "expires_at", "updated_at"}),
	}).Create(c).Error
}

func (o *OtpStore) Get(ctx context.Context, phone string, purpose domain.OtpPurpose) (*domain.OtpChallenge, error) {
	var c domain.OtpChallenge
	if err := o.db.WithContext(ctx).First(&c, "phone = ? AND purpose = ?", phone, purpose).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &c, nil
}

// DeleteAll removes every challenge for (phone, purpose) and returns how many
// rows went away. A zero count after a successful hash compare means another
// request consumed the code first.
func (o *OtpStore) DeleteAll(ctx context.Context, phone string, purpose domain.OtpPurpose) (int64, error) {
	tx := o.db.WithContext(ctx).
		Where("phone = ? AND purpose = ?", phone, purpose).
		Delete(&domain.OtpChallenge{})
	return tx.RowsAffected, tx.Error
}

// PurgeExpired drops challenges past their expiry. Expiry is also checked on
// every verify, so this only bounds table growth.
func (o *OtpStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tx := o.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.OtpChallenge{})
	return tx.RowsAffected, tx.Error
}
