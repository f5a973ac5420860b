package model

import "time"

// User represents an application user record as stored in the
// `users` table.  The password hash is opaque to the auction core;
// only the auth handlers read it.
//
// Fields:
//  ID           – uuid primary key.
//  Username     – unique display name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           string    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Ref returns the public identity of the user.
func (u User) Ref() UserRef { return UserRef{ID: u.ID, Username: u.Username} }
