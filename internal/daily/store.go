package daily

import (
	"context"
	"database/sql"
)

// Result is one finished daily run.
type Result struct {
	UserID        string  `json:"userId"`
	Date          string  `json:"date"`
	PlaceIndex    int     `json:"placeIndex"`
	Guesses       int     `json:"guesses"`
	ElapsedMs     int     `json:"elapsedMs"`
	BestDistanceM float64 `json:"bestDistanceM"`
}

// Store persists daily results to SQLite.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether the user has a persisted result for the date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records a finished run. Duplicate (user, date) pairs are
// silently ignored so a re-submitted win cannot overwrite the first.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, place_index, guesses, elapsed_ms, best_distance_m)
		 VALUES(?,?,?,?,?,?)`,
		r.UserID, r.Date, r.PlaceIndex, r.Guesses, r.ElapsedMs, r.BestDistanceM,
	)
	return err
}

// LBRow is one leaderboard entry.
type LBRow struct {
	UserID        string  `json:"userId"`
	Guesses       int     `json:"guesses"`
	ElapsedMs     int     `json:"elapsedMs"`
	BestDistanceM float64 `json:"bestDistanceM"`
}

// Leaderboard lists the best runs for a date: fewest guesses first, ties
// broken by time, then by submission order.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, guesses, elapsed_ms, best_distance_m
		 FROM daily_results
		 WHERE date=?
		 ORDER BY guesses ASC, elapsed_ms ASC, created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LBRow
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Guesses, &r.ElapsedMs, &r.BestDistanceM); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
