package session

import (
	"testing"
	"time"
)

func TestStoreDefaults(t *testing.T) {
	s := NewStore(Options{})

	w := s.Get(1, 2)
	if w.Objective != "promessa" || w.Similarity != 60 || w.Menu != "main" {
		t.Errorf("unexpected defaults: %+v", w)
	}
}

func TestStoreUpdateAndReset(t *testing.T) {
	s := NewStore(Options{TTL: time.Minute})

	s.Update(1, 2, func(w *Wizard) {
		w.Brief = "meu vídeo"
		w.Similarity = 90
	})

	got := s.Get(1, 2)
	if got.Brief != "meu vídeo" || got.Similarity != 90 {
		t.Errorf("update not persisted: %+v", got)
	}

	// State is keyed by chat and user together.
	if other := s.Get(1, 3); other.Brief != "" {
		t.Errorf("state leaked across users: %+v", other)
	}

	after := s.Reset(1, 2)
	if after.Brief != "" || after.Similarity != 60 {
		t.Errorf("reset did not restore defaults: %+v", after)
	}
}

func TestAssignPhoto(t *testing.T) {
	var w Wizard

	slots := []struct {
		fileID string
		want   string
	}{
		{"f1", "person"},
		{"f2", "reference"},
		{"f3", "extra"},
		{"f4", ""},
	}
	for _, tt := range slots {
		if got := w.AssignPhoto(tt.fileID); got != tt.want {
			t.Errorf("AssignPhoto(%q) = %q, want %q", tt.fileID, got, tt.want)
		}
	}

	person, reference, extra := w.PhotoSlots()
	if person != "f1" || reference != "f2" || extra != "f3" {
		t.Errorf("slots = %q %q %q", person, reference, extra)
	}
}
