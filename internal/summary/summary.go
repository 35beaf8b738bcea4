// Package summary aggregates stored interventions for the dashboard and
// client views.
package summary

import (
	"sort"

	"github.com/insightdelivered/closure-importer/internal/models"
)

// ByType sums total cents per work type. Every known type is present.
func ByType(items []models.Intervention) map[models.WorkType]int64 {
	out := make(map[models.WorkType]int64, len(models.WorkTypes))
	for _, t := range models.WorkTypes {
		out[t] = 0
	}
	for _, it := range items {
		out[it.Type] += it.TotalCents
	}
	return out
}

// Day is the dashboard view of one date.
type Day struct {
	Date                   string                    `json:"date"`
	TotalCents             int64                     `json:"total_cents"`
	Count                  int                       `json:"count"`
	InstallationCents      int64                     `json:"installation_cents"`
	RepairMaintenanceCents int64                     `json:"repair_maintenance_cents"`
	ByType                 map[models.WorkType]int64 `json:"by_type"`
	Imports                []ImportRow               `json:"imports"`
}

// ImportRow is an import batch with its review status.
type ImportRow struct {
	models.ImportBatch
	Status          models.Status `json:"status"`
	DifferenceCents int64         `json:"difference_cents"`
}

// NewDay summarises the interventions of date. Items of other dates are ignored.
func NewDay(date string, items []models.Intervention, imports []models.ImportBatch) *Day {
	d := &Day{Date: date, Imports: ImportRows(imports)}
	var sameDay []models.Intervention
	for _, it := range items {
		if it.Date != date {
			continue
		}
		sameDay = append(sameDay, it)
		d.TotalCents += it.TotalCents
		d.Count++
	}
	d.ByType = ByType(sameDay)
	d.InstallationCents = d.ByType[models.WorkInstallation]
	d.RepairMaintenanceCents = d.ByType[models.WorkRepair] + d.ByType[models.WorkMaintenance]
	return d
}

// ImportRows attaches a status to each batch.
func ImportRows(imports []models.ImportBatch) []ImportRow {
	rows := make([]ImportRow, 0, len(imports))
	for _, b := range imports {
		rows = append(rows, ImportRow{
			ImportBatch:     b,
			Status:          b.Status(),
			DifferenceCents: b.DeclaredTotalCents - b.ComputedTotalCents,
		})
	}
	return rows
}

// ResolveDate picks the dashboard date: the requested one, else the latest
// date with data, else today. dates must be ascending.
func ResolveDate(requested string, dates []string, today string) string {
	if requested != "" {
		return requested
	}
	if len(dates) > 0 {
		return dates[len(dates)-1]
	}
	return today
}

// Client aggregates one client's interventions.
type Client struct {
	ClientID   string `json:"client_id"`
	Count      int    `json:"count"`
	TotalCents int64  `json:"total_cents"`
	LastDate   string `json:"last_date"`
}

// ForClient totals items for clientID. Items of other clients are ignored.
func ForClient(clientID string, items []models.Intervention) Client {
	c := Client{ClientID: clientID}
	for _, it := range items {
		if it.ClientID != clientID {
			continue
		}
		c.add(it)
	}
	return c
}

func (c *Client) add(it models.Intervention) {
	c.Count++
	c.TotalCents += it.TotalCents
	if it.Date > c.LastDate {
		c.LastDate = it.Date
	}
}

const (
	recentScan    = 30
	recentClients = 20
)

// RecentClients groups the first 30 of items (expected newest first) by
// client and returns at most 20 groups, most recent first.
func RecentClients(items []models.Intervention) []Client {
	if len(items) > recentScan {
		items = items[:recentScan]
	}

	groups := make(map[string]*Client)
	order := []string{}
	for _, it := range items {
		g, ok := groups[it.ClientID]
		if !ok {
			g = &Client{ClientID: it.ClientID}
			groups[it.ClientID] = g
			order = append(order, it.ClientID)
		}
		g.add(it)
	}

	out := make([]Client, 0, len(order))
	for _, id := range order {
		out = append(out, *groups[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastDate > out[j].LastDate
	})
	if len(out) > recentClients {
		out = out[:recentClients]
	}
	return out
}
