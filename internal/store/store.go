package store

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/stock-optimizer/internal/domain"
)

// minHistoryYears is the smallest usable overlapping date range.
const minHistoryYears = 0.1

// AlignedSeries holds date-aligned adjusted closes for a set of tickers over
// their common date range. Gaps are filled with the most recent prior price.
type AlignedSeries struct {
	Dates  []time.Time
	Closes map[string][]float64
}

// Years returns the span of the aligned range in calendar years.
func (a *AlignedSeries) Years() float64 {
	if len(a.Dates) < 2 {
		return 0
	}
	return a.Dates[len(a.Dates)-1].Sub(a.Dates[0]).Hours() / 24 / 365.25
}

// Store provides read-only access to price history and sector metadata.
// Lookups hit sqlite; aligned series are cached in memory because the search
// engine re-reads the same universe for every candidate batch.
type Store struct {
	db  *DB
	log zerolog.Logger

	mu         sync.RWMutex
	seriesCache map[string]*domain.PriceSeries
	sectorCache map[string]string
}

// New creates a market data store on top of an open database
func New(db *DB, log zerolog.Logger) *Store {
	return &Store{
		db:          db,
		log:         log.With().Str("component", "store").Logger(),
		seriesCache: make(map[string]*domain.PriceSeries),
		sectorCache: make(map[string]string),
	}
}

// Sector returns the sector for a ticker, "Unknown" when absent.
func (s *Store) Sector(ticker string) string {
	ticker = domain.NormalizeTicker(ticker)

	s.mu.RLock()
	if sector, ok := s.sectorCache[ticker]; ok {
		s.mu.RUnlock()
		return sector
	}
	s.mu.RUnlock()

	var sector string
	err := s.db.Conn().QueryRow("SELECT sector FROM securities WHERE ticker = ?", ticker).Scan(&sector)
	if err == sql.ErrNoRows || sector == "" {
		sector = "Unknown"
	} else if err != nil {
		s.log.Error().Err(err).Str("ticker", ticker).Msg("Sector lookup failed")
		sector = "Unknown"
	}

	s.mu.Lock()
	s.sectorCache[ticker] = sector
	s.mu.Unlock()

	return sector
}

// AllTickers returns every ticker with at least one price row.
func (s *Store) AllTickers() []string {
	rows, err := s.db.Conn().Query("SELECT DISTINCT ticker FROM prices ORDER BY ticker")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list tickers")
		return nil
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			continue
		}
		tickers = append(tickers, t)
	}
	return tickers
}

// TickersBySector returns the tickers belonging to a sector.
func (s *Store) TickersBySector(sector string) []string {
	rows, err := s.db.Conn().Query(
		"SELECT ticker FROM securities WHERE sector = ? ORDER BY ticker", sector)
	if err != nil {
		s.log.Error().Err(err).Str("sector", sector).Msg("Failed to list sector tickers")
		return nil
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			continue
		}
		tickers = append(tickers, t)
	}
	return tickers
}

// Series returns the full price series for one ticker, date-ascending, or
// nil when the ticker has no history.
func (s *Store) Series(ticker string) (*domain.PriceSeries, error) {
	ticker = domain.NormalizeTicker(ticker)

	s.mu.RLock()
	if series, ok := s.seriesCache[ticker]; ok {
		s.mu.RUnlock()
		return series, nil
	}
	s.mu.RUnlock()

	rows, err := s.db.Conn().Query(
		"SELECT date, adjusted_close FROM prices WHERE ticker = ? ORDER BY date", ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	series := &domain.PriceSeries{Ticker: ticker}
	for rows.Next() {
		var dateStr string
		var closePrice float64
		if err := rows.Scan(&dateStr, &closePrice); err != nil {
			return nil, fmt.Errorf("failed to scan price row for %s: %w", ticker, err)
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("bad date %q for %s: %w", dateStr, ticker, err)
		}
		series.Points = append(series.Points, domain.PricePoint{Date: date, AdjustedClose: closePrice})
	}

	if len(series.Points) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	s.seriesCache[ticker] = series
	s.mu.Unlock()

	return series, nil
}

// GetAlignedSeries returns date-aligned closes for the given tickers over
// their common date range. Tickers without any history produce a
// MissingInstrumentError; a common range shorter than 0.1 years produces
// ErrInsufficientHistory.
func (s *Store) GetAlignedSeries(tickers []string) (*AlignedSeries, error) {
	if len(tickers) == 0 {
		return nil, domain.ErrInsufficientHistory
	}

	series := make(map[string]*domain.PriceSeries, len(tickers))
	var missing []string
	for _, t := range tickers {
		ps, err := s.Series(t)
		if err != nil {
			return nil, err
		}
		if ps == nil {
			missing = append(missing, t)
			continue
		}
		series[ps.Ticker] = ps
	}
	if len(missing) > 0 {
		return nil, &domain.MissingInstrumentError{Tickers: missing}
	}

	// Common range: latest first observation to earliest last observation.
	var start, end time.Time
	for _, ps := range series {
		first := ps.Points[0].Date
		last := ps.Points[len(ps.Points)-1].Date
		if start.IsZero() || first.After(start) {
			start = first
		}
		if end.IsZero() || last.Before(end) {
			end = last
		}
	}
	if !start.Before(end) {
		return nil, domain.ErrInsufficientHistory
	}

	// Union of observation dates inside the common range. Every ticker has a
	// price at or before any such date, so carry-forward always succeeds.
	dateSet := make(map[time.Time]struct{})
	for _, ps := range series {
		for _, p := range ps.Points {
			if !p.Date.Before(start) && !p.Date.After(end) {
				dateSet[p.Date] = struct{}{}
			}
		}
	}
	dates := make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	aligned := &AlignedSeries{
		Dates:  dates,
		Closes: make(map[string][]float64, len(series)),
	}
	for ticker, ps := range series {
		closes := make([]float64, len(dates))
		idx := 0
		last := 0.0
		for i, d := range dates {
			for idx < len(ps.Points) && !ps.Points[idx].Date.After(d) {
				last = ps.Points[idx].AdjustedClose
				idx++
			}
			closes[i] = last
		}
		aligned.Closes[ticker] = closes
	}

	if aligned.Years() < minHistoryYears {
		return nil, domain.ErrInsufficientHistory
	}

	return aligned, nil
}

// GetAlignedUniverse aligns the core tickers and every other known ticker
// whose history spans the core tickers' common range. Instruments with
// shorter history (recent listings, delistings) are skipped so they cannot
// shrink the range the core tickers support.
func (s *Store) GetAlignedUniverse(core []string) (*AlignedSeries, error) {
	coreAligned, err := s.GetAlignedSeries(core)
	if err != nil {
		return nil, err
	}
	start := coreAligned.Dates[0]
	end := coreAligned.Dates[len(coreAligned.Dates)-1]

	tickers := make([]string, 0, len(core))
	seen := make(map[string]bool, len(core))
	for _, t := range core {
		t = domain.NormalizeTicker(t)
		if !seen[t] {
			seen[t] = true
			tickers = append(tickers, t)
		}
	}

	for _, t := range s.AllTickers() {
		if seen[t] {
			continue
		}
		ps, err := s.Series(t)
		if err != nil || ps == nil {
			continue
		}
		first := ps.Points[0].Date
		last := ps.Points[len(ps.Points)-1].Date
		if first.After(start) || last.Before(end) {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}

	return s.GetAlignedSeries(tickers)
}

// WarmCache preloads every ticker's series into the in-memory cache.
func (s *Store) WarmCache() error {
	tickers := s.AllTickers()
	for _, t := range tickers {
		if _, err := s.Series(t); err != nil {
			return err
		}
	}
	s.log.Info().Int("tickers", len(tickers)).Msg("Series cache warmed")
	return nil
}

// InvalidateCache drops the in-memory caches, forcing fresh reads.
func (s *Store) InvalidateCache() {
	s.mu.Lock()
	s.seriesCache = make(map[string]*domain.PriceSeries)
	s.sectorCache = make(map[string]string)
	s.mu.Unlock()
}
