package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
)

// GormJournal stores entries through gorm.
type GormJournal struct {
	db *gorm.DB
}

// OpenPostgres connects to dsn and migrates the journal table.
func OpenPostgres(ctx context.Context, dsn string) (*GormJournal, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newGormJournal(ctx, db)
}

func newGormJournal(ctx context.Context, db *gorm.DB) (*GormJournal, error) {
	if err := db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &GormJournal{db: db}, nil
}

func (j *GormJournal) Append(ctx context.Context, code string, seq int, cmd engine.Command) error {
	e, err := newEntry(code, seq, cmd)
	if err != nil {
		return err
	}
	if err := j.db.WithContext(ctx).Create(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s/%d", ErrDuplicateSeq, code, seq)
		}
		return fmt.Errorf("append %s/%d: %w", code, seq, err)
	}
	return nil
}

func (j *GormJournal) Load(ctx context.Context, code string) ([]engine.Command, error) {
	var entries []Entry
	err := j.db.WithContext(ctx).
		Where("game_code = ?", code).
		Order("seq ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", code, err)
	}
	cmds := make([]engine.Command, 0, len(entries))
	for _, e := range entries {
		cmd, err := e.command()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func (j *GormJournal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
