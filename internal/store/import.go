package store

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// ImportJSON loads securities and their daily candles from a JSON feed file
// into the database. Expected shape:
//
//	{
//	  "securities": [
//	    {
//	      "ticker": "AAPL",
//	      "name": "Apple Inc.",
//	      "sector": "Information Technology",
//	      "candles": [{"date": "2020-01-02", "close": 74.33}, ...]
//	    }
//	  ]
//	}
//
// Existing rows for the same (ticker, date) are replaced. Returns the number
// of securities and price rows imported.
func (s *Store) ImportJSON(path string) (int, int, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read feed file: %w", err)
	}

	securities := gjson.GetBytes(body, "securities")
	if !securities.IsArray() {
		return 0, 0, fmt.Errorf("feed file has no securities array")
	}

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	secStmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO securities (ticker, name, sector) VALUES (?, ?, ?)")
	if err != nil {
		return 0, 0, err
	}
	defer secStmt.Close()

	priceStmt, err := tx.Prepare(
		"INSERT OR REPLACE INTO prices (ticker, date, adjusted_close) VALUES (?, ?, ?)")
	if err != nil {
		return 0, 0, err
	}
	defer priceStmt.Close()

	secCount := 0
	priceCount := 0
	var walkErr error

	securities.ForEach(func(_, sec gjson.Result) bool {
		ticker := strings.ToUpper(strings.TrimSpace(sec.Get("ticker").String()))
		if ticker == "" {
			return true // skip nameless entries
		}

		name := sec.Get("name").String()
		sector := sec.Get("sector").String()
		if sector == "" {
			sector = "Unknown"
		}

		if _, err := secStmt.Exec(ticker, name, sector); err != nil {
			walkErr = fmt.Errorf("failed to insert security %s: %w", ticker, err)
			return false
		}
		secCount++

		sec.Get("candles").ForEach(func(_, candle gjson.Result) bool {
			date := candle.Get("date").String()
			closePrice := candle.Get("close").Float()
			if date == "" || closePrice <= 0 {
				return true
			}
			if _, err := priceStmt.Exec(ticker, date, closePrice); err != nil {
				walkErr = fmt.Errorf("failed to insert price %s %s: %w", ticker, date, err)
				return false
			}
			priceCount++
			return true
		})

		return walkErr == nil
	})

	if walkErr != nil {
		return 0, 0, walkErr
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit import: %w", err)
	}

	s.InvalidateCache()
	s.log.Info().
		Int("securities", secCount).
		Int("prices", priceCount).
		Msg("Feed import completed")

	return secCount, priceCount, nil
}
