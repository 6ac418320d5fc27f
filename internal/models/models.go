package models

import "time"

// Session represents an active occupancy of a charging station.
type Session struct {
	UserAlias  string    `db:"user_alias" json:"user_alias"`
	Vehicle    string    `db:"vehicle" json:"vehicle"`
	BatteryPct int       `db:"battery_pct" json:"battery_pct"`
	Station    int       `db:"station" json:"station"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	PINHash    string    `db:"pin_hash" json:"-"`
}

// WaitlistEntry represents a user waiting for any station to free up.
type WaitlistEntry struct {
	UserAlias   string    `db:"user_alias" json:"user_alias"`
	Vehicle     string    `db:"vehicle" json:"vehicle"`
	BatteryPct  int       `db:"battery_pct" json:"battery_pct"`
	RequestedAt time.Time `db:"requested_at" json:"requested_at"`
}

// Reservation is a time-boxed exclusive right to claim any free station,
// granted to one user after waitlist promotion.
type Reservation struct {
	UserAlias string    `db:"user_alias" json:"user_alias"`
	GrantedAt time.Time `db:"granted_at" json:"granted_at"`
}

// ArchiveKind tags the origin of an archived row.
type ArchiveKind string

const (
	ArchiveKindSession  ArchiveKind = "session"
	ArchiveKindWaitlist ArchiveKind = "waitlist"
)

// ArchiveRecord is an immutable copy of a session or waitlist entry taken at
// rollover time. Append-only.
type ArchiveRecord struct {
	BatchID    string      `db:"batch_id" json:"batch_id"`
	Kind       ArchiveKind `db:"kind" json:"kind"`
	UserAlias  string      `db:"user_alias" json:"user_alias"`
	Vehicle    string      `db:"vehicle" json:"vehicle"`
	BatteryPct int         `db:"battery_pct" json:"battery_pct"`
	Station    int         `db:"station" json:"station"`
	RecordedAt time.Time   `db:"recorded_at" json:"recorded_at"`
	ArchivedOn time.Time   `db:"archived_on" json:"archived_on"`
}
