package repository

import (
	"testing"

	"brickDelivery/models"
)

func TestCursorRoundTrip(t *testing.T) {
	tok := EncodeCursor(1700000000, 42)
	sec, id, err := DecodeCursor(tok)
	if err != nil || sec != 1700000000 || id != 42 {
		t.Fatalf("got %d %d %v", sec, id, err)
	}
	if _, _, err := DecodeCursor("%%%"); err == nil {
		t.Fatalf("expected error for garbage token")
	}
}

func TestPlacementToUnixSeconds(t *testing.T) {
	a, err := PlacementToUnixSeconds("2024-01-02 03:04:05")
	if err != nil {
		t.Fatalf("sqlite layout: %v", err)
	}
	b, err := PlacementToUnixSeconds("2024-01-02T03:04:05Z")
	if err != nil || a != b {
		t.Fatalf("rfc3339 mismatch: %d %d %v", a, b, err)
	}
	if _, err := PlacementToUnixSeconds(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestNextCursor_ShortPage(t *testing.T) {
	page := []models.Order{{ID: 1, PlacementAt: "2024-01-02 03:04:05"}}
	if NextCursor(page, 2) != "" {
		t.Fatalf("short page must not produce a cursor")
	}
	if NextCursor(page, 1) == "" {
		t.Fatalf("full page must produce a cursor")
	}
}
