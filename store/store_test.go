package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "winshield.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHiddenWindowRoundTrip(t *testing.T) {
	s := openTestStore(t)

	w := &HiddenWindow{Handle: 0xABCD, Title: "Secret Chat", Process: "chat.exe", PID: 1234}
	if err := s.SaveHidden(w); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	rows, err := s.ListHidden()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	got := rows[0]
	if got.Handle != w.Handle || got.Title != w.Title || got.Process != w.Process || got.PID != w.PID {
		t.Errorf("row = %+v, want %+v", got, w)
	}
}

func TestSaveHiddenUpdatesExisting(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveHidden(&HiddenWindow{Handle: 1, Title: "old"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.SaveHidden(&HiddenWindow{Handle: 1, Title: "new", PID: 99}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	rows, _ := s.ListHidden()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 after upsert", len(rows))
	}
	if rows[0].Title != "new" || rows[0].PID != 99 {
		t.Errorf("row = %+v, want updated fields", rows[0])
	}
}

func TestDeleteHidden(t *testing.T) {
	s := openTestStore(t)

	s.SaveHidden(&HiddenWindow{Handle: 1, Title: "a"})
	s.SaveHidden(&HiddenWindow{Handle: 2, Title: "b"})

	if err := s.DeleteHidden(1); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	rows, _ := s.ListHidden()
	if len(rows) != 1 || rows[0].Handle != 2 {
		t.Errorf("rows = %+v, want only handle 2", rows)
	}

	// Deleting a row that is already gone is fine.
	if err := s.DeleteHidden(1); err != nil {
		t.Errorf("repeat delete failed: %v", err)
	}
}

func TestDeleteHiddenThenRehide(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveHidden(&HiddenWindow{Handle: 0xABCD, Title: "first"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.DeleteHidden(0xABCD); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// The same handle must be storable again after a delete. A lingering
	// soft-deleted row would trip the unique index here.
	if err := s.SaveHidden(&HiddenWindow{Handle: 0xABCD, Title: "second"}); err != nil {
		t.Fatalf("re-hide after delete failed: %v", err)
	}

	rows, err := s.ListHidden()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "second" {
		t.Errorf("rows = %+v, want one fresh record", rows)
	}
}

func TestClearExclusionThenReapply(t *testing.T) {
	s := openTestStore(t)

	if err := s.RecordExclusion(&Exclusion{Handle: 0x77, Mode: 0x11}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := s.ClearExclusion(0x77); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := s.RecordExclusion(&Exclusion{Handle: 0x77, Mode: 0x11}); err != nil {
		t.Fatalf("re-record after clear failed: %v", err)
	}

	rows, _ := s.ListExclusions()
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
}

func TestClearHidden(t *testing.T) {
	s := openTestStore(t)

	s.SaveHidden(&HiddenWindow{Handle: 1})
	s.SaveHidden(&HiddenWindow{Handle: 2})

	if err := s.ClearHidden(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	rows, _ := s.ListHidden()
	if len(rows) != 0 {
		t.Errorf("rows = %+v, want none", rows)
	}
}

func TestExclusionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	e := &Exclusion{Handle: 0x77, Title: "Banking", Process: "bank.exe", Mode: 0x11}
	if err := s.RecordExclusion(e); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	rows, err := s.ListExclusions()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Mode != 0x11 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].AppliedAt.IsZero() {
		t.Error("AppliedAt was not defaulted")
	}

	if err := s.ClearExclusion(0x77); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	rows, _ = s.ListExclusions()
	if len(rows) != 0 {
		t.Errorf("rows = %+v after clear, want none", rows)
	}
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)

	if got := s.Setting("auto_unload", "off"); got != "off" {
		t.Errorf("missing setting = %q, want fallback", got)
	}

	if err := s.SetSetting("auto_unload", "on"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got := s.Setting("auto_unload", "off"); got != "on" {
		t.Errorf("setting = %q, want on", got)
	}

	if err := s.SetSetting("auto_unload", "off"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if got := s.Setting("auto_unload", "on"); got != "off" {
		t.Errorf("setting = %q after overwrite, want off", got)
	}
}
