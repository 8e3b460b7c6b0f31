package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/nusafiber/fieldops_backend/models"
	"github.com/nusafiber/fieldops_backend/utils"
)

func TestDistributionKeyboardLayout(t *testing.T) {
	names := []string{"ODP-A", "ODP-B", "ODP-C", "ODP-D", "ODP-E"}
	kb := DistributionKeyboard(7, names)

	// Total button plus five names is six buttons: rows of 3/3.
	if len(kb.InlineKeyboard) != 2 {
		t.Fatalf("got %d rows, want 2", len(kb.InlineKeyboard))
	}
	for i, row := range kb.InlineKeyboard {
		if len(row) != 3 {
			t.Errorf("row %d has %d buttons, want 3", i, len(row))
		}
	}
	if kb.InlineKeyboard[0][0].Text != "Total" {
		t.Errorf("first button = %q, want Total", kb.InlineKeyboard[0][0].Text)
	}

	// Every button must carry parseable callback data.
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			data, err := ParseCallbackData(btn.CallbackData)
			if err != nil {
				t.Errorf("button %q: %v", btn.Text, err)
				continue
			}
			if data.ProjectID != 7 {
				t.Errorf("button %q: project id = %d", btn.Text, data.ProjectID)
			}
		}
	}
}

func TestMilestoneKeyboardHasFinishRow(t *testing.T) {
	tasks := []*models.WorkTask{
		{ID: 1, TaskName: "Survey", Progress: 40},
		{ID: 2, TaskName: "Penarikan Kabel", Progress: 10},
	}
	kb := MilestoneKeyboard(7, 42, tasks)
	if len(kb.InlineKeyboard) != 3 {
		t.Fatalf("got %d rows, want 2 tasks + finish", len(kb.InlineKeyboard))
	}
	last := kb.InlineKeyboard[2][0]
	data, err := ParseCallbackData(last.CallbackData)
	if err != nil {
		t.Fatalf("finish button: %v", err)
	}
	if data.Action != ActionCloseMilestones || data.ReportID != 42 {
		t.Errorf("finish button data = %+v", data)
	}
}

func TestFormatProjectStatusOverall(t *testing.T) {
	project := &models.Project{Name: "Cluster Melati", City: "Bogor", IsActive: utils.NewTrue()}
	tasks := []*models.WorkTask{
		{TaskName: "Survey", Progress: 100},
		{TaskName: "Penarikan Kabel", Progress: 50},
		{TaskName: "Commissioning Test", Progress: 0},
	}
	latest := &models.DailyReport{ReportDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)}
	out := FormatProjectStatus(project, tasks, 2, latest)

	if !strings.Contains(out, "Last report: 2026-08-30") {
		t.Errorf("missing last report date:\n%s", out)
	}
	if !strings.Contains(out, "Overall: 50%") {
		t.Errorf("missing overall average:\n%s", out)
	}
	if !strings.Contains(out, "Pending reports: 2") {
		t.Errorf("missing pending count:\n%s", out)
	}
	if !strings.Contains(out, "🟢 Survey") || !strings.Contains(out, "🟡 Penarikan Kabel") || !strings.Contains(out, "⚪ Commissioning Test") {
		t.Errorf("missing status icons:\n%s", out)
	}
}

func TestFormatEscapesHTML(t *testing.T) {
	project := &models.Project{Name: "<b>Injected</b> & Co"}
	out := FormatProjectStatus(project, nil, 0, nil)
	if strings.Contains(out, "<b>Injected</b>") {
		t.Errorf("project name not escaped:\n%s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;Injected&lt;/b&gt; &amp; Co") {
		t.Errorf("expected escaped name:\n%s", out)
	}
}
