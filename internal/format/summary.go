package format

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"logpanel/internal/dashboard"
	"logpanel/internal/menu"
	"logpanel/internal/model"
)

// WriteStats writes per-level counts.
func WriteStats(w io.Writer, stats model.Stats, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		tw := newTable(w)
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, Align: text.AlignLeft},
			{Number: 2, Align: text.AlignRight},
		})
		tw.AppendHeader(table.Row{"Level", "Count"})
		for _, level := range model.Levels {
			tw.AppendRow(table.Row{level.Upper(), stats.Count(level)})
		}
		tw.AppendFooter(table.Row{"TOTAL", stats.Total()})
		_ = tw.Render()
		return nil
	case "json":
		return writeJSON(w, stats)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteMenu writes a menu tree. Nested items are indented under their parent.
func WriteMenu(w io.Writer, items []menu.Item, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		tw := newTable(w)
		tw.Style().Options.SeparateRows = false
		tw.AppendHeader(table.Row{"Title", "Path", "Icon", "Category", "Priority", "Auth"})
		appendMenuRows(tw, items, 0)
		if len(items) == 0 {
			tw.AppendRow(table.Row{"(no pages)", "-", "-", "-", "-", "-"})
		}
		_ = tw.Render()
		return nil
	case "plain":
		return writeMenuPlain(w, items, 0)
	case "json":
		if items == nil {
			items = []menu.Item{}
		}
		return writeJSON(w, items)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func appendMenuRows(tw table.Writer, items []menu.Item, depth int) {
	for _, item := range items {
		auth := ""
		if item.RequireAuth {
			auth = "yes"
		}
		tw.AppendRow(table.Row{
			strings.Repeat("  ", depth) + item.Title,
			item.Path,
			item.Icon,
			item.Category,
			item.Priority,
			auth,
		})
		appendMenuRows(tw, item.Children, depth+1)
	}
}

func writeMenuPlain(w io.Writer, items []menu.Item, depth int) error {
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "%s%s\t%s\n", strings.Repeat("  ", depth), item.Title, item.Path); err != nil {
			return err
		}
		if err := writeMenuPlain(w, item.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// WriteMenuGroups writes items grouped by category.
func WriteMenuGroups(w io.Writer, groups []menu.Group, format string) error {
	if strings.ToLower(format) == "json" {
		if groups == nil {
			groups = []menu.Group{}
		}
		return writeJSON(w, groups)
	}
	for i, group := range groups {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "== %s (%d) ==\n", group.Category, len(group.Items)); err != nil {
			return err
		}
		if err := WriteMenu(w, group.Items, format); err != nil {
			return err
		}
	}
	return nil
}

// WriteDashboard writes the stat cards followed by recent activities.
func WriteDashboard(w io.Writer, view dashboard.View, format string, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	switch strings.ToLower(format) {
	case "", "table":
	case "json":
		return writeJSON(w, view)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	stats := newTable(w)
	stats.AppendHeader(table.Row{"Stat", "Value"})
	stats.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, card := range view.Stats {
		stats.AppendRow(table.Row{card.Title, card.Display()})
	}
	_ = stats.Render()

	auto := "off"
	if view.AutoRefresh {
		auto = fmt.Sprintf("every %ds", view.RefreshInterval)
	}
	if _, err := fmt.Fprintf(w, "Last refresh: %s  Auto refresh: %s\n",
		view.LastRefresh.In(loc).Format("15:04:05"), auto); err != nil {
		return err
	}

	activities := newTable(w)
	activities.Style().Options.SeparateRows = false
	activities.AppendHeader(table.Row{"Time", "Activity", "Description"})
	for _, a := range view.RecentActivities {
		activities.AppendRow(table.Row{a.Timestamp.In(loc).Format("2006-01-02 15:04:05"), a.Title, a.Description})
	}
	if len(view.RecentActivities) == 0 {
		activities.AppendRow(table.Row{"-", "(no activity)", "-"})
	}
	_ = activities.Render()
	return nil
}
