// Package export renders an organization's deal ledger as CSV for
// spreadsheet hand-off. Column layout is stable; downstream sheets key on
// the header names.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/solartrack/go-deal-ledger/internal/domain"
)

// header is the fixed CSV column set.
var header = []string{
	"id", "customer", "setter_id", "setter_name", "closer_id", "closer_name",
	"status", "kw", "loss_reason", "loss_detail",
	"created_at", "closed_at", "canceled_at",
}

// WriteCSV streams deals to w as CSV, one row per deal plus the header.
// Timestamps are RFC 3339 UTC; a nil kW renders as an empty cell, distinct
// from an explicit 0.
func WriteCSV(w io.Writer, deals []domain.Deal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range deals {
		if err := cw.Write(row(&deals[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(d *domain.Deal) []string {
	kw := ""
	if d.KW != nil {
		kw = strconv.FormatFloat(*d.KW, 'f', -1, 64)
	}
	return []string{
		strconv.FormatInt(d.ID, 10),
		d.CustomerName,
		d.SetterID,
		d.SetterName,
		d.CloserID,
		d.CloserName,
		string(d.Status),
		kw,
		string(d.LossReason),
		d.LossDetail,
		stamp(&d.CreatedAt),
		stamp(d.ClosedAt),
		stamp(d.CanceledAt),
	}
}

func stamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
