package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientHistory is returned when the overlapping price history for
// the requested tickers covers less than the minimum usable range.
var ErrInsufficientHistory = errors.New("insufficient overlapping price history")

// MissingInstrumentError reports tickers absent from the price store.
type MissingInstrumentError struct {
	Tickers []string
}

func (e *MissingInstrumentError) Error() string {
	return fmt.Sprintf("missing price history for: %s", strings.Join(e.Tickers, ", "))
}

// IsMissingInstrument reports whether err wraps a MissingInstrumentError and
// returns the missing tickers when it does.
func IsMissingInstrument(err error) ([]string, bool) {
	var m *MissingInstrumentError
	if errors.As(err, &m) {
		return m.Tickers, true
	}
	return nil, false
}
