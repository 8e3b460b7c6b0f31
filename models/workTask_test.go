package models

import "testing"

func TestTaskStatusFromProgress(t *testing.T) {
	tests := []struct {
		progress int
		want     TaskStatus
	}{
		{-5, TaskStatusNotStarted},
		{0, TaskStatusNotStarted},
		{1, TaskStatusInProgress},
		{99, TaskStatusInProgress},
		{100, TaskStatusCompleted},
		{140, TaskStatusCompleted},
	}
	for _, tc := range tests {
		if got := TaskStatusFromProgress(tc.progress); got != tc.want {
			t.Errorf("TaskStatusFromProgress(%d) = %q, want %q", tc.progress, got, tc.want)
		}
	}
}

func TestReportStatusIsTerminal(t *testing.T) {
	if ReportStatusPending.IsTerminal() {
		t.Error("PENDING must not be terminal")
	}
	if !ReportStatusApproved.IsTerminal() || !ReportStatusRejected.IsTerminal() {
		t.Error("APPROVED and REJECTED must be terminal")
	}
}
