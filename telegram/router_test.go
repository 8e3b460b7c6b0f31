package telegram

import (
	"errors"
	"testing"

	"github.com/nusafiber/fieldops_backend/models"
	"github.com/nusafiber/fieldops_backend/utils"
)

func TestSelectAccessibleProject(t *testing.T) {
	p1 := &models.Project{ID: 1, Name: "Cluster Melati"}
	p2 := &models.Project{ID: 2, Name: "Cluster Mawar"}

	member := &models.AccessGate{TelegramID: 100, IsActive: true, ProjectIDs: []int{1}}
	admin := &models.AccessGate{TelegramID: 200, IsActive: true, IsAdmin: true}

	cases := []struct {
		name    string
		gate    *models.AccessGate
		matches []*models.Project
		wantID  int
		wantErr error
	}{
		{"no match is not-found", member, nil, 0, utils.ErrorRecordNotFound},
		{"match outside grants is denied, never data", member, []*models.Project{p2}, 0, utils.ErrorAccessDenied},
		{"granted match wins", member, []*models.Project{p1}, 1, nil},
		{"accessible match wins over inaccessible", member, []*models.Project{p2, p1}, 1, nil},
		{"admin needs no grant", admin, []*models.Project{p2}, 2, nil},
		{"empty grant set is denied", &models.AccessGate{IsActive: true}, []*models.Project{p1}, 0, utils.ErrorAccessDenied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			project, err := selectAccessibleProject(tc.gate, tc.matches)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				if project != nil {
					t.Fatalf("denied lookup leaked project %+v", project)
				}
				return
			}
			if project == nil || project.ID != tc.wantID {
				t.Fatalf("project = %+v, want id %d", project, tc.wantID)
			}
		})
	}
}
