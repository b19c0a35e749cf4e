package session

import "testing"

func TestLastUnknownIdentity(t *testing.T) {
	s := NewLinks()
	if url, ok := s.Last("u1"); ok {
		t.Errorf("Last(unknown) = (%q, true), want miss", url)
	}
}

func TestRecordAndLast(t *testing.T) {
	s := NewLinks()
	s.Record("u1", "https://vm.tiktok.com/a/")
	url, ok := s.Last("u1")
	if !ok || url != "https://vm.tiktok.com/a/" {
		t.Errorf("Last(u1) = (%q, %v), want recorded link", url, ok)
	}
}

func TestLastWriteWins(t *testing.T) {
	s := NewLinks()
	s.Record("u1", "https://vm.tiktok.com/old/")
	s.Record("u1", "https://vm.tiktok.com/new/")
	url, _ := s.Last("u1")
	if url != "https://vm.tiktok.com/new/" {
		t.Errorf("Last(u1) = %q, want newest link", url)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (no history kept)", s.Len())
	}
}

func TestIdentitiesIsolated(t *testing.T) {
	s := NewLinks()
	s.Record("u1", "https://vm.tiktok.com/a/")
	s.Record("u2", "https://vm.tiktok.com/b/")
	if url, _ := s.Last("u1"); url != "https://vm.tiktok.com/a/" {
		t.Errorf("u1 link = %q, want a", url)
	}
	if url, _ := s.Last("u2"); url != "https://vm.tiktok.com/b/" {
		t.Errorf("u2 link = %q, want b", url)
	}
}
