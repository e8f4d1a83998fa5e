package repository

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"brickDelivery/models"
)

const (
	cursorSeparator = "|"
	// PlacementLayout is the SQLite CURRENT_TIMESTAMP format used for placement_date.
	PlacementLayout = "2006-01-02 15:04:05"
)

// EncodeCursor builds an opaque page token from placement unix seconds and order id.
func EncodeCursor(seconds int64, id int64) string {
	raw := strconv.FormatInt(seconds, 10) + cursorSeparator + strconv.FormatInt(id, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a page token into placement unix seconds and order id.
func DecodeCursor(token string) (seconds int64, id int64, err error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, 0, fmt.Errorf("base64: %w", err)
	}
	parts := strings.SplitN(string(b), cursorSeparator, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cursor format")
	}
	if seconds, err = strconv.ParseInt(parts[0], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("parse seconds: %w", err)
	}
	if id, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("parse id: %w", err)
	}
	return seconds, id, nil
}

// PlacementToUnixSeconds parses a placement date in RFC3339 or SQLite format.
func PlacementToUnixSeconds(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty placement_date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix(), nil
	}
	if t, err := time.ParseInLocation(PlacementLayout, s, time.UTC); err == nil {
		return t.Unix(), nil
	}
	return 0, fmt.Errorf("unsupported placement_date format: %q", s)
}

// NextCursor returns the token continuing after a full page of orders, or "".
func NextCursor(page []models.Order, pageSize int) string {
	if len(page) == 0 || len(page) < pageSize {
		return ""
	}
	last := page[len(page)-1]
	sec, err := PlacementToUnixSeconds(last.PlacementAt)
	if err != nil {
		return ""
	}
	return EncodeCursor(sec, last.ID)
}
