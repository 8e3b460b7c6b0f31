package models

import "testing"

func TestAccessGateCanAccess(t *testing.T) {
	member := &AccessGate{TelegramID: 100, IsActive: true, ProjectIDs: []int{1, 3}}
	if !member.CanAccess(1) || !member.CanAccess(3) {
		t.Error("granted projects must be accessible")
	}
	if member.CanAccess(2) {
		t.Error("project outside the grant set must be denied")
	}

	admin := &AccessGate{TelegramID: 200, IsActive: true, IsAdmin: true}
	if !admin.CanAccess(2) {
		t.Error("admins implicitly hold every project")
	}
}
