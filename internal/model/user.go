package model

import "time"

// User represents a row in the `users` table. The booking core treats
// users as referenced-only entities: it verifies that an identifier
// exists but never creates, updates or deletes one. User lifecycle is
// owned by an external system.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name joined into reservation listings.
//  CreatedAt – timestamp of creation.
type User struct {
	ID        uint64    // users.id
	Name      string    // users.name
	CreatedAt time.Time // users.created_at
}
