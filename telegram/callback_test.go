package telegram

import "testing"

func TestCallbackDataRoundTrip(t *testing.T) {
	tests := []CallbackData{
		{Action: ActionApproveReport, ReportID: 42},
		{Action: ActionRejectReport, ReportID: 7},
		{Action: ActionSelectMilestone, ProjectID: 3, TaskID: 11, ReportID: 42},
		{Action: ActionCloseMilestones, ReportID: 42},
		{Action: ActionApproveUser, UserID: 9876543210},
		{Action: ActionToggleGrant, UserID: 55, ProjectID: 3},
		{Action: ActionFinishManage, UserID: 55},
		{Action: ActionDistribution, ProjectID: 3, Distribution: "ODP-A"},
		{Action: ActionDistribution, ProjectID: 3, Distribution: ""},
		{Action: ActionRequestAccess, UserID: 123},
		{Action: ActionReportTemplate, ProjectID: 8},
	}
	for _, want := range tests {
		t.Run(want.Encode(), func(t *testing.T) {
			got, err := ParseCallbackData(want.Encode())
			if err != nil {
				t.Fatalf("ParseCallbackData(%q): %v", want.Encode(), err)
			}
			if got != want {
				t.Errorf("round trip: got %+v, want %+v", got, want)
			}
		})
	}
}

func TestParseCallbackDataDistributionWithColon(t *testing.T) {
	// Distribution names may contain colons; everything after the project id
	// belongs to the name.
	got, err := ParseCallbackData("distribution:3:Zone A: north")
	if err != nil {
		t.Fatalf("ParseCallbackData: %v", err)
	}
	if got.ProjectID != 3 || got.Distribution != "Zone A: north" {
		t.Errorf("got %+v", got)
	}
}

func TestParseCallbackDataRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"unknown-action:1",
		"approve-report",
		"approve-report:x",
		"approve-report:1:2",
		"select-milestone:1:2",
		"toggle-grant:55",
		"distribution",
	}
	for _, raw := range tests {
		if _, err := ParseCallbackData(raw); err == nil {
			t.Errorf("ParseCallbackData(%q): want error, got nil", raw)
		}
	}
}
