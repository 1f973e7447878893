// Package data loads historical bar series from disk.
package data

import (
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/tradeforge-dev/backtest-engine/internal/types"
	"github.com/tradeforge-dev/backtest-engine/pkg/errors"
)

// csvTime accepts the timestamp layouts commonly found in exported candle
// files.
type csvTime struct {
	time.Time
}

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *csvTime) UnmarshalCSV(field string) error {
	for _, layout := range csvTimeLayouts {
		parsed, err := time.Parse(layout, field)
		if err == nil {
			t.Time = parsed

			return nil
		}
	}

	return errors.Newf(errors.ErrCodeMalformedData, "unparseable timestamp %q", field)
}

type csvBar struct {
	Time   csvTime `csv:"time"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// LoadCSV reads a bar series from a CSV file with a
// time,open,high,low,close,volume header. Rows are returned in chronological
// order regardless of file order.
func LoadCSV(path string) ([]types.Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeNoData, err, "failed to open data file %s", path)
	}
	defer file.Close()

	var rows []csvBar
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMalformedData, err, "failed to parse data file %s", path)
	}

	if len(rows) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoData, "data file %s has no bars", path)
	}

	bars := make([]types.Bar, len(rows))
	for i, row := range rows {
		bars[i] = types.Bar{
			Time:   row.Time.Time,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		}
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	return bars, nil
}
