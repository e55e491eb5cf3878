package models

import "testing"

func TestStatusTerminal(t *testing.T) {
	terminal := map[RequestStatus]bool{
		StatusSubmitted:   false,
		StatusUnderReview: false,
		StatusAssigned:    false,
		StatusInProgress:  false,
		StatusCompleted:   true,
		StatusRejected:    true,
		StatusClosed:      true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestAllowsTransitionForwardPath(t *testing.T) {
	steps := []struct {
		from, to RequestStatus
	}{
		{StatusSubmitted, StatusUnderReview},
		{StatusUnderReview, StatusAssigned},
		{StatusAssigned, StatusInProgress},
		{StatusInProgress, StatusCompleted},
	}
	for _, step := range steps {
		if !AllowsTransition(RoleStaff, step.from, step.to) {
			t.Errorf("staff should be allowed %s -> %s", step.from, step.to)
		}
		if !AllowsTransition(RoleAdmin, step.from, step.to) {
			t.Errorf("admin should be allowed %s -> %s", step.from, step.to)
		}
		if AllowsTransition(RoleCitizen, step.from, step.to) {
			t.Errorf("citizen must not be allowed %s -> %s", step.from, step.to)
		}
	}
}

func TestAllowsTransitionRejectsEdgesOutsideTable(t *testing.T) {
	all := []RequestStatus{
		StatusSubmitted, StatusUnderReview, StatusAssigned,
		StatusInProgress, StatusCompleted, StatusRejected, StatusClosed,
	}
	allowed := map[[2]RequestStatus]bool{}
	for from, to := range forwardEdges {
		allowed[[2]RequestStatus{from, to}] = true
	}
	for _, from := range all {
		// The administrative close is reachable from everywhere but closed
		// itself; rejection only from non-terminal states.
		if from != StatusClosed {
			allowed[[2]RequestStatus{from, StatusClosed}] = true
		}
		if !from.Terminal() {
			allowed[[2]RequestStatus{from, StatusRejected}] = true
		}
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]RequestStatus{from, to}]
			if got := AllowsTransition(RoleAdmin, from, to); got != want {
				t.Errorf("admin %s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestAllowsTransitionFromTerminal(t *testing.T) {
	for _, from := range []RequestStatus{StatusCompleted, StatusRejected, StatusClosed} {
		for _, to := range []RequestStatus{StatusUnderReview, StatusRejected, StatusSubmitted, StatusInProgress} {
			if AllowsTransition(RoleAdmin, from, to) {
				t.Errorf("no ordinary transition may leave terminal state %s (tried %s)", from, to)
			}
		}
		// The administrative close is the one exception.
		if from != StatusClosed {
			if !AllowsTransition(RoleAdmin, from, StatusClosed) {
				t.Errorf("admin should be able to close a %s request", from)
			}
		} else if AllowsTransition(RoleAdmin, from, StatusClosed) {
			t.Error("closed -> closed is not a transition")
		}
		if AllowsTransition(RoleStaff, from, StatusClosed) {
			t.Errorf("staff must not close a %s request", from)
		}
	}
}

func TestCloseIsAdminOnly(t *testing.T) {
	if AllowsTransition(RoleStaff, StatusUnderReview, StatusClosed) {
		t.Error("staff must not close requests")
	}
	if !AllowsTransition(RoleAdmin, StatusUnderReview, StatusClosed) {
		t.Error("admin close override should be allowed from any non-terminal state")
	}
	if !AllowsTransition(RoleAdmin, StatusSubmitted, StatusClosed) {
		t.Error("admin close override should be allowed from submitted")
	}
}

func TestRejectAllowedForStaffFromAnyNonTerminal(t *testing.T) {
	for _, from := range []RequestStatus{StatusSubmitted, StatusUnderReview, StatusAssigned, StatusInProgress} {
		if !AllowsTransition(RoleStaff, from, StatusRejected) {
			t.Errorf("staff should be able to reject from %s", from)
		}
	}
}

func TestAssignableFrom(t *testing.T) {
	want := map[RequestStatus]bool{
		StatusSubmitted:   false,
		StatusUnderReview: true,
		StatusAssigned:    true,
		StatusInProgress:  true,
		StatusCompleted:   false,
		StatusRejected:    false,
		StatusClosed:      false,
	}
	for status, expect := range want {
		if got := AssignableFrom(status); got != expect {
			t.Errorf("AssignableFrom(%s) = %v, want %v", status, got, expect)
		}
	}
}

func TestEnumValidity(t *testing.T) {
	if !RoadMaintenance.Valid() || !OtherCategory.Valid() {
		t.Error("known categories should be valid")
	}
	if RequestCategory("pothole").Valid() {
		t.Error("unknown category should be invalid")
	}
	if !PriorityUrgent.Valid() {
		t.Error("urgent should be a valid priority")
	}
	if RequestPriority("critical").Valid() {
		t.Error("unknown priority should be invalid")
	}
	if !StatusUnderReview.Valid() {
		t.Error("under_review should be a valid status")
	}
	if RequestStatus("archived").Valid() {
		t.Error("unknown status should be invalid")
	}
}
