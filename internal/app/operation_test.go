package app

import (
	"testing"
	"time"
)

func TestNewOperation(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 123_000_000, time.UTC)
	op := NewOperation("ls", start)

	if op.ID != "20240115T103000.123Z" {
		t.Errorf("ID = %q, want %q", op.ID, "20240115T103000.123Z")
	}
	if op.Name != "ls" {
		t.Errorf("Name = %q, want %q", op.Name, "ls")
	}
	if op.Status != "success" {
		t.Errorf("Status = %q, want %q", op.Status, "success")
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("add", time.Now())
	op.Fail()
	if op.Status != "error" {
		t.Errorf("Status after Fail() = %q, want %q", op.Status, "error")
	}
}

func TestOperation_Duration(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	op := NewOperation("backup push", start)

	if got := op.Duration(start.Add(1500 * time.Millisecond)); got != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got)
	}
}
