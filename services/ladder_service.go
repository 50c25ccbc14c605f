// services/ladder_service.go
package services

import (
	"sort"

	"github.com/ponghub/matchserver/persistence"
)

const ladderSize = 10

// LadderEntry is one ranked player. Rank starts at 1; a player outside the
// top 10 gets the zero entry, not an error.
type LadderEntry struct {
	PlayerID int64 `json:"player_id"`
	Wins     int   `json:"wins"`
	Rank     int   `json:"rank"`
}

// LadderService derives the leaderboard from persisted match records.
// Read-mostly and stateless: every call re-aggregates.
type LadderService struct {
	repo persistence.MatchRepository
}

func NewLadderService(repo persistence.MatchRepository) *LadderService {
	return &LadderService{repo: repo}
}

// ComputeLadder returns the top 10 players by total wins. The winner of a
// record is the side with the strictly greater score; malformed equal-score
// records count for no one. Ties in win count keep record order (stable
// sort), which is an accepted non-guarantee rather than a tiebreak rule.
func (s *LadderService) ComputeLadder() ([]LadderEntry, error) {
	records, err := s.repo.AllRecords()
	if err != nil {
		return nil, err
	}

	wins := make(map[int64]int)
	var order []int64
	for _, rec := range records {
		var winner int64
		switch {
		case rec.Score1 > rec.Score2:
			winner = rec.Player1ID
		case rec.Score2 > rec.Score1:
			winner = rec.Player2ID
		default:
			continue
		}
		if _, seen := wins[winner]; !seen {
			order = append(order, winner)
		}
		wins[winner]++
	}

	entries := make([]LadderEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, LadderEntry{PlayerID: id, Wins: wins[id]})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Wins > entries[j].Wins
	})

	if len(entries) > ladderSize {
		entries = entries[:ladderSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// GetPlayerRank returns the player's ladder entry, or {wins:0, rank:0} if
// the player is not in the top 10.
func (s *LadderService) GetPlayerRank(playerID int64) (LadderEntry, error) {
	ladder, err := s.ComputeLadder()
	if err != nil {
		return LadderEntry{}, err
	}
	for _, e := range ladder {
		if e.PlayerID == playerID {
			return e, nil
		}
	}
	return LadderEntry{PlayerID: playerID}, nil
}

// GetRecord returns a player's full match history.
func (s *LadderService) GetRecord(playerID int64) ([]persistence.MatchRecord, error) {
	return s.repo.RecordsFor(playerID)
}
