package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ponghub/matchserver/persistence"
)

// fakeRepo serves canned records.
type fakeRepo struct {
	records []persistence.MatchRecord
}

func (f *fakeRepo) Record(p1, p2 int64, s1, s2 int) error {
	f.records = append(f.records, persistence.MatchRecord{Player1ID: p1, Player2ID: p2, Score1: s1, Score2: s2})
	return nil
}

func (f *fakeRepo) AllRecords() ([]persistence.MatchRecord, error) {
	return f.records, nil
}

func (f *fakeRepo) RecordsFor(playerID int64) ([]persistence.MatchRecord, error) {
	var out []persistence.MatchRecord
	for _, r := range f.records {
		if r.Player1ID == playerID || r.Player2ID == playerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) Close() error { return nil }

func match(p1, p2 int64, s1, s2 int) persistence.MatchRecord {
	return persistence.MatchRecord{Player1ID: p1, Player2ID: p2, Score1: s1, Score2: s2}
}

func TestComputeLadder(t *testing.T) {
	repo := &fakeRepo{records: []persistence.MatchRecord{
		match(1, 2, 10, 3), // 1 wins
		match(3, 1, 10, 0), // 3 wins
		match(2, 3, 4, 10), // 3 wins
		match(1, 4, 10, 8), // 1 wins
		match(4, 2, 2, 10), // 2 wins
	}}
	svc := NewLadderService(repo)

	ladder, err := svc.ComputeLadder()
	require.NoError(t, err)
	require.Len(t, ladder, 3)

	assert.Equal(t, int64(1), ladder[0].PlayerID)
	assert.Equal(t, 2, ladder[0].Wins)
	assert.Equal(t, 1, ladder[0].Rank)

	assert.Equal(t, int64(3), ladder[1].PlayerID)
	assert.Equal(t, 2, ladder[1].Wins)
	assert.Equal(t, 2, ladder[1].Rank)

	assert.Equal(t, int64(2), ladder[2].PlayerID)
	assert.Equal(t, 1, ladder[2].Wins)
	assert.Equal(t, 3, ladder[2].Rank)
}

func TestComputeLadder_TiesKeepInputOrder(t *testing.T) {
	// Players 5 and 6 both have one win; 5 won first, so 5 ranks first.
	repo := &fakeRepo{records: []persistence.MatchRecord{
		match(5, 9, 10, 1),
		match(6, 9, 10, 2),
	}}
	svc := NewLadderService(repo)

	ladder, err := svc.ComputeLadder()
	require.NoError(t, err)
	require.Len(t, ladder, 2)
	assert.Equal(t, int64(5), ladder[0].PlayerID)
	assert.Equal(t, int64(6), ladder[1].PlayerID)
}

func TestComputeLadder_ToleratesEqualScores(t *testing.T) {
	// Draws cannot happen under the win threshold, but a malformed record
	// must not count for anyone.
	repo := &fakeRepo{records: []persistence.MatchRecord{
		match(1, 2, 5, 5),
		match(1, 2, 10, 0),
	}}
	svc := NewLadderService(repo)

	ladder, err := svc.ComputeLadder()
	require.NoError(t, err)
	require.Len(t, ladder, 1)
	assert.Equal(t, int64(1), ladder[0].PlayerID)
	assert.Equal(t, 1, ladder[0].Wins)
}

func TestComputeLadder_TopTenOnly(t *testing.T) {
	repo := &fakeRepo{}
	// Player i wins i matches, for i in 1..12.
	for i := int64(1); i <= 12; i++ {
		for w := int64(0); w < i; w++ {
			repo.records = append(repo.records, match(i, 100, 10, 0))
		}
	}
	svc := NewLadderService(repo)

	ladder, err := svc.ComputeLadder()
	require.NoError(t, err)
	require.Len(t, ladder, 10)
	assert.Equal(t, int64(12), ladder[0].PlayerID)
	assert.Equal(t, 12, ladder[0].Wins)
	assert.Equal(t, int64(3), ladder[9].PlayerID)
}

func TestGetPlayerRank_DefaultForAbsent(t *testing.T) {
	repo := &fakeRepo{records: []persistence.MatchRecord{
		match(1, 2, 10, 0),
	}}
	svc := NewLadderService(repo)

	entry, err := svc.GetPlayerRank(2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), entry.PlayerID)
	assert.Equal(t, 0, entry.Wins)
	assert.Equal(t, 0, entry.Rank)

	entry, err = svc.GetPlayerRank(1)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Wins)
	assert.Equal(t, 1, entry.Rank)
}

func TestGetRecord(t *testing.T) {
	repo := &fakeRepo{records: []persistence.MatchRecord{
		match(1, 2, 10, 0),
		match(3, 4, 10, 2),
		match(5, 1, 3, 10),
	}}
	svc := NewLadderService(repo)

	records, err := svc.GetRecord(1)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
