package models

import "testing"

func TestScanStateTerminal(t *testing.T) {
	if ScanPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !ScanClean.Terminal() || !ScanInfected.Terminal() {
		t.Error("clean and infected are the terminal scan states")
	}
	if ScanState("scanning").Valid() {
		t.Error("internal claim state must not be a valid external scan state")
	}
}

func TestRoleChecks(t *testing.T) {
	if RoleCitizen.IsStaff() {
		t.Error("citizen is not staff")
	}
	if !RoleStaff.IsStaff() || !RoleAdmin.IsStaff() {
		t.Error("staff and admin carry staff permissions")
	}
	if Role("moderator").Valid() {
		t.Error("unknown role should be invalid")
	}
}
