// persistence/gorm_postgresql.go
package persistence

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MatchRecordModel is the gorm mapping for match records.
type MatchRecordModel struct {
	ID        int64 `gorm:"primaryKey"`
	Player1ID int64 `gorm:"index;not null"`
	Player2ID int64 `gorm:"index;not null"`
	Score1    int   `gorm:"not null"`
	Score2    int   `gorm:"not null"`
	CreatedAt time.Time
}

func (MatchRecordModel) TableName() string {
	return "match_records"
}

// GormPostgreSQL implements MatchRepository on PostgreSQL.
type GormPostgreSQL struct {
	db *gorm.DB
}

func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      logger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&MatchRecordModel{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

func (p *GormPostgreSQL) Record(player1ID, player2ID int64, score1, score2 int) error {
	rec := MatchRecordModel{
		Player1ID: player1ID,
		Player2ID: player2ID,
		Score1:    score1,
		Score2:    score2,
	}
	return p.db.Create(&rec).Error
}

func (p *GormPostgreSQL) AllRecords() ([]MatchRecord, error) {
	var models []MatchRecordModel
	if err := p.db.Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return toRecords(models), nil
}

func (p *GormPostgreSQL) RecordsFor(playerID int64) ([]MatchRecord, error) {
	var models []MatchRecordModel
	err := p.db.Order("id").
		Where("player1_id = ? OR player2_id = ?", playerID, playerID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toRecords(models), nil
}

func toRecords(models []MatchRecordModel) []MatchRecord {
	records := make([]MatchRecord, 0, len(models))
	for _, m := range models {
		records = append(records, MatchRecord{
			ID:        m.ID,
			Player1ID: m.Player1ID,
			Player2ID: m.Player2ID,
			Score1:    m.Score1,
			Score2:    m.Score2,
			CreatedAt: m.CreatedAt,
		})
	}
	return records
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
