package models

type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "PENDING"
	ReportStatusApproved ReportStatus = "APPROVED"
	ReportStatusRejected ReportStatus = "REJECTED"
)

// IsTerminal reports whether the status can never change again.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusApproved || s == ReportStatusRejected
}

type TransactionType string

const (
	TransactionTypeIn  TransactionType = "IN"
	TransactionTypeOut TransactionType = "OUT"
)

type ItemCategory string

const (
	ItemCategorySow    ItemCategory = "SOW"
	ItemCategoryPermit ItemCategory = "PERMIT"
)

type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "NOT_STARTED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// TaskStatusFromProgress derives the task status label. Status is never stored
// or set independently; it is always this function of progress.
func TaskStatusFromProgress(progress int) TaskStatus {
	switch {
	case progress <= 0:
		return TaskStatusNotStarted
	case progress >= 100:
		return TaskStatusCompleted
	default:
		return TaskStatusInProgress
	}
}
