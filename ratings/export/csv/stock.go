package csv

import (
	"encoding/csv"
	"io"

	"github.com/glbter/stock-ratings/entities"
)

var header = []string{"ticker", "company", "target_from", "target_to", "action", "brokerage", "rating_from", "rating_to", "time"}

// WriteStocks writes one row per record, price targets as the API sent them.
func WriteStocks(w io.Writer, stocks []entities.Stock) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return err
	}

	for _, s := range stocks {
		if err := csvWriter.Write([]string{
			s.Ticker,
			s.Company,
			s.TargetFrom.Raw,
			s.TargetTo.Raw,
			s.Action,
			s.Brokerage,
			s.RatingFrom,
			s.RatingTo,
			s.Time,
		}); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
