// persistence/interface.go
package persistence

import (
	"errors"
	"time"
)

// MatchRecord is one completed or forfeited match as stored. Written
// exactly once per match, never for a room that folded before two players
// were present.
type MatchRecord struct {
	ID        int64     `json:"id"`
	Player1ID int64     `json:"player1_id"`
	Player2ID int64     `json:"player2_id"`
	Score1    int       `json:"score1"`
	Score2    int       `json:"score2"`
	CreatedAt time.Time `json:"created_at"`
}

// MatchRepository is the append-mostly store for match results. The match
// server writes through Record and the ladder/read endpoints consume the
// rest.
type MatchRepository interface {
	Record(player1ID, player2ID int64, score1, score2 int) error
	AllRecords() ([]MatchRecord, error)
	RecordsFor(playerID int64) ([]MatchRecord, error)
	Close() error
}

var ErrRecordNotFound = errors.New("record not found")
