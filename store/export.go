package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/mbolis/desirability-form/model"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts json and csv in any case. An empty string means json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", ErrUnknownFormat
}

// Export serializes every response, newest first: a JSON array, or CSV with
// a header row in model.Columns order.
func (s *Store) Export(ctx context.Context, format Format) ([]byte, error) {
	if format != FormatJSON && format != FormatCSV {
		return nil, ErrUnknownFormat
	}

	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	if format == FormatJSON {
		return json.Marshal(records)
	}
	return EncodeCSV(records)
}

func EncodeCSV(records []model.FormResponse) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(model.Columns); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if err := w.Write(rec.Record()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
