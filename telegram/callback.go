package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// CallbackAction is the closed vocabulary of inline-button actions. Callback
// data is parsed into a typed CallbackData exactly once at the router
// boundary; nothing downstream splits strings.
type CallbackAction string

const (
	ActionApproveReport  CallbackAction = "approve-report"
	ActionRejectReport   CallbackAction = "reject-report"
	ActionSelectMilestone CallbackAction = "select-milestone"
	ActionCloseMilestones CallbackAction = "close-milestones"
	ActionApproveUser    CallbackAction = "approve-user"
	ActionToggleGrant    CallbackAction = "toggle-grant"
	ActionFinishManage   CallbackAction = "finish-manage"
	ActionDistribution   CallbackAction = "distribution"
	ActionRequestAccess  CallbackAction = "request-access"
	ActionReportTemplate CallbackAction = "report-template"
)

type CallbackData struct {
	Action       CallbackAction
	ReportID     int
	ProjectID    int
	TaskID       int
	UserID       int64
	Distribution string
}

// ParseCallbackData decodes colon-delimited button data. Unknown actions and
// wrong arities are errors; the router answers those interactions without
// acting on them.
func ParseCallbackData(raw string) (CallbackData, error) {
	parts := strings.Split(raw, ":")
	action := CallbackAction(parts[0])
	args := parts[1:]

	var data CallbackData
	data.Action = action

	intArg := func(i int) (int, error) {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return 0, fmt.Errorf("callback %q: bad argument %q", raw, args[i])
		}
		return n, nil
	}

	var err error
	switch action {
	case ActionApproveReport, ActionRejectReport, ActionCloseMilestones:
		if len(args) != 1 {
			return data, fmt.Errorf("callback %q: want 1 argument, got %d", raw, len(args))
		}
		data.ReportID, err = intArg(0)
	case ActionSelectMilestone:
		if len(args) != 3 {
			return data, fmt.Errorf("callback %q: want 3 arguments, got %d", raw, len(args))
		}
		if data.ProjectID, err = intArg(0); err != nil {
			return data, err
		}
		if data.TaskID, err = intArg(1); err != nil {
			return data, err
		}
		data.ReportID, err = intArg(2)
	case ActionApproveUser, ActionFinishManage, ActionRequestAccess:
		if len(args) != 1 {
			return data, fmt.Errorf("callback %q: want 1 argument, got %d", raw, len(args))
		}
		data.UserID, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			err = fmt.Errorf("callback %q: bad argument %q", raw, args[0])
		}
	case ActionToggleGrant:
		if len(args) != 2 {
			return data, fmt.Errorf("callback %q: want 2 arguments, got %d", raw, len(args))
		}
		data.UserID, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return data, fmt.Errorf("callback %q: bad argument %q", raw, args[0])
		}
		data.ProjectID, err = intArg(1)
	case ActionDistribution:
		// Distribution names may themselves contain colons; everything after
		// the project id is the name. Empty name means project total.
		if len(args) < 1 {
			return data, fmt.Errorf("callback %q: want at least 1 argument", raw)
		}
		if data.ProjectID, err = intArg(0); err != nil {
			return data, err
		}
		data.Distribution = strings.Join(args[1:], ":")
	case ActionReportTemplate:
		if len(args) != 1 {
			return data, fmt.Errorf("callback %q: want 1 argument, got %d", raw, len(args))
		}
		data.ProjectID, err = intArg(0)
	default:
		return data, fmt.Errorf("unknown callback action %q", parts[0])
	}
	return data, err
}

func (d CallbackData) Encode() string {
	switch d.Action {
	case ActionApproveReport, ActionRejectReport, ActionCloseMilestones:
		return fmt.Sprintf("%s:%d", d.Action, d.ReportID)
	case ActionSelectMilestone:
		return fmt.Sprintf("%s:%d:%d:%d", d.Action, d.ProjectID, d.TaskID, d.ReportID)
	case ActionApproveUser, ActionFinishManage, ActionRequestAccess:
		return fmt.Sprintf("%s:%d", d.Action, d.UserID)
	case ActionToggleGrant:
		return fmt.Sprintf("%s:%d:%d", d.Action, d.UserID, d.ProjectID)
	case ActionDistribution:
		return fmt.Sprintf("%s:%d:%s", d.Action, d.ProjectID, d.Distribution)
	case ActionReportTemplate:
		return fmt.Sprintf("%s:%d", d.Action, d.ProjectID)
	}
	return string(d.Action)
}
