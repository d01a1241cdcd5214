package main

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tbourn/unarchive-tracker/internal/domain"
	"github.com/tbourn/unarchive-tracker/internal/utils"
)

type recordRow struct {
	ID            int64     `json:"id"`
	Reference     string    `json:"reference_code"`
	Requester     string    `json:"requester_name"`
	Type          string    `json:"record_type"`
	Status        string    `json:"status"`
	RequestDate   string    `json:"request_date"`
	Deadline      string    `json:"deadline"`
	DaysLeft      *int      `json:"days_until_deadline,omitempty"`
	Urgent        bool      `json:"urgent"`
	AssignedToID  *int64    `json:"assigned_to_id,omitempty"`
	LastUpdatedAt time.Time `json:"updated_at"`
}

func toRow(rec *domain.Record) recordRow {
	snap := rec.Snapshot()
	return recordRow{
		ID:            snap.ID,
		Reference:     snap.ReferenceCode,
		Requester:     snap.RequesterName,
		Type:          string(snap.RecordType),
		Status:        string(snap.Status),
		RequestDate:   snap.RequestDate.Format(utils.DateLayout),
		Deadline:      rec.Deadline().Format(utils.DateLayout),
		DaysLeft:      rec.DaysUntilDeadline(),
		Urgent:        snap.Urgent,
		AssignedToID:  snap.AssignedToID,
		LastUpdatedAt: snap.UpdatedAt,
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	return tw
}

func (c *cli) printRecords(w io.Writer, recs []*domain.Record) error {
	rows := make([]recordRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, toRow(r))
	}
	if c.json {
		return printJSON(w, rows)
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"ID", "Reference", "Requester", "Type", "Status", "Requested", "Deadline", "Days left", "Urgent", "Assignee"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	for _, r := range rows {
		days := ""
		if r.DaysLeft != nil {
			days = strconv.Itoa(*r.DaysLeft)
			if *r.DaysLeft < 0 {
				days = text.FgRed.Sprint(days)
			}
		}
		urgent := ""
		if r.Urgent {
			urgent = "yes"
		}
		tw.AppendRow(table.Row{r.ID, r.Reference, r.Requester, r.Type, r.Status, r.RequestDate, r.Deadline, days, urgent, formatID(r.AssignedToID)})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "", "", "", "", "Total", len(rows)})
	tw.Render()
	return nil
}

func (c *cli) printStats(w io.Writer, st *domain.DashboardStats) error {
	if c.json {
		byStatus := make(map[string]int64, len(st.ByStatus))
		for k, v := range st.ByStatus {
			byStatus[string(k)] = v
		}
		byType := make(map[string]int64, len(st.ByType))
		for k, v := range st.ByType {
			byType[string(k)] = v
		}
		return printJSON(w, map[string]any{
			"total":       st.Total,
			"pending":     st.Pending,
			"in_progress": st.InProgress,
			"finalized":   st.Finalized,
			"overdue":     st.Overdue,
			"urgent":      st.Urgent,
			"by_status":   byStatus,
			"by_type":     byType,
		})
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Counter", "Value"})
	tw.AppendRows([]table.Row{
		{"total", st.Total},
		{"pending", st.Pending},
		{"in progress", st.InProgress},
		{"finalized", st.Finalized},
		{"overdue", st.Overdue},
		{"urgent", st.Urgent},
	})
	tw.AppendSeparator()
	for _, s := range sortedKeys(st.ByStatus) {
		tw.AppendRow(table.Row{"status " + s, st.ByStatus[domain.Status(s)]})
	}
	tw.AppendSeparator()
	for _, t := range sortedKeys(st.ByType) {
		tw.AppendRow(table.Row{"type " + t, st.ByType[domain.RecordType(t)]})
	}
	tw.Render()
	return nil
}

func (c *cli) printTriage(w io.Writer, rows []domain.InvalidRow) error {
	if c.json {
		type out struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
			Reason string `json:"reason"`
		}
		res := make([]out, 0, len(rows))
		for _, r := range rows {
			res = append(res, out{r.ID, r.Status, r.Reason})
		}
		return printJSON(w, res)
	}
	tw := newTable(w)
	tw.AppendHeader(table.Row{"ID", "Stored status", "Reason"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r.ID, r.Status, r.Reason})
	}
	tw.Render()
	return nil
}

func sortedKeys[K ~string, V any](m map[K]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}
