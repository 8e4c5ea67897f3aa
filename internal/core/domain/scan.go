package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ScanEvent records one point-earning action. Scan events are append-only.
type ScanEvent struct {
	ID            string    `json:"id" bson:"_id"`
	UserID        string    `json:"user_id" bson:"user_id"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	PayloadDigest string    `json:"payload_digest,omitempty" bson:"payload_digest,omitempty"`
}

// PayloadDigest returns the hex sha256 of a scanned QR payload, or "" when
// nothing was scanned (manual/demo scans).
func PayloadDigest(payload string) string {
	if payload == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
