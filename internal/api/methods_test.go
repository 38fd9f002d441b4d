package api

import "testing"

func TestMethods_NoDuplicateIDs(t *testing.T) {
	seen := make(map[int]bool)
	for _, m := range Methods {
		if seen[m.ID] {
			t.Errorf("duplicate calculation method ID: %d", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestMethods_IDsAreValid(t *testing.T) {
	for _, m := range Methods {
		if m.ID < 0 || m.ID > 23 {
			t.Errorf("method ID %d out of range 0-23", m.ID)
		}
		if m.Name == "" {
			t.Errorf("method ID %d has empty name", m.ID)
		}
	}
}

func TestMethodName(t *testing.T) {
	if name, ok := MethodName(DefaultMethod); !ok || name != "Umm Al-Qura University, Makkah" {
		t.Errorf("MethodName(%d) = %q, %v", DefaultMethod, name, ok)
	}
	if _, ok := MethodName(6); ok {
		t.Error("MethodName(6) should not exist")
	}
}
