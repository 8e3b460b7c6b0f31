package workflow

import (
	"sync"
	"testing"

	"github.com/nusafiber/fieldops_backend/models"
)

// NOTE: These tests are intentionally DB-free. They validate the approval
// semantics the SQL conditional update provides:
// - exactly one of N concurrent clicks wins the PENDING -> terminal transition
// - ledger side effects run only for the winner
//
// Full DB integration tests should be added in an environment that can run MySQL.

// fakeReportStore mimics ResolveReportStatus: an atomic compare-and-set on the
// status column.
type fakeReportStore struct {
	mu       sync.Mutex
	status   map[int]models.ReportStatus
	ledger   int
	resolves int
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{status: map[int]models.ReportStatus{}}
}

func (s *fakeReportStore) resolve(reportID int, to models.ReportStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolves++
	if s.status[reportID] != models.ReportStatusPending {
		return false
	}
	s.status[reportID] = to
	return true
}

func (s *fakeReportStore) approve(reportID int) bool {
	if !s.resolve(reportID, models.ReportStatusApproved) {
		return false
	}
	// Side effects run only on the winning path.
	s.mu.Lock()
	s.ledger++
	s.mu.Unlock()
	return true
}

func TestConcurrentApproveAppliesOnce(t *testing.T) {
	store := newFakeReportStore()
	store.status[1] = models.ReportStatusPending

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.approve(1) {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if applied != 1 {
		t.Fatalf("expected exactly 1 applied approval, got %d", applied)
	}
	if store.ledger != 1 {
		t.Fatalf("expected exactly 1 ledger write, got %d", store.ledger)
	}
	if store.resolves != 25 {
		t.Fatalf("every click must reach the guard: got %d resolves", store.resolves)
	}
	if store.status[1] != models.ReportStatusApproved {
		t.Fatalf("status = %q", store.status[1])
	}
}

func TestRejectAfterApproveDoesNotApply(t *testing.T) {
	store := newFakeReportStore()
	store.status[1] = models.ReportStatusPending

	if !store.approve(1) {
		t.Fatal("first approve must apply")
	}
	if store.resolve(1, models.ReportStatusRejected) {
		t.Fatal("reject after approve must not apply")
	}
	if store.status[1] != models.ReportStatusApproved {
		t.Fatalf("status = %q, want APPROVED", store.status[1])
	}
}
