package store

import (
	"context"
	"time"

	"vaanikaam/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditStore struct{ db *gorm.DB }

func (s *Store) AuditEvents() *AuditStore { return &AuditStore{db: s.DB} }

func (a *AuditStore) Append(ctx context.Context, ev *domain.AuditEvent) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	return a.db.WithContext(ctx).Create(ev).Error
}
