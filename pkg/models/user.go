package models

import "time"

// User is a stored user document. The identity provider's user id is the
// primary key; users are created on the first authentication callback and
// never updated or deleted by this backend.
type User struct {
	ID        string    `bson:"_id"` // identity-provider user id
	FullName  string    `bson:"full_name"`
	Email     string    `bson:"email"` // unique index, see store.Bootstrap
	ImageURL  string    `bson:"image_url"`
	CreatedAt time.Time `bson:"created_at"`
}

// UserOut is the wire representation of a User.
type UserOut struct {
	ID        string `json:"_id"`
	ClerkID   string `json:"clerkId"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	ImageURL  string `json:"imageUrl"`
	CreatedAt string `json:"createdAt"`
}

// NewUser creates a user document keyed by the provider id.
func NewUser(providerID, fullName, email, imageURL string) User {
	return User{
		ID:        providerID,
		FullName:  fullName,
		Email:     email,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}
}

// Out converts the document to its wire representation. The provider id is
// exposed both as the document id and under its own key, which is what the
// web client expects.
func (u User) Out() UserOut {
	return UserOut{
		ID:        u.ID,
		ClerkID:   u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		ImageURL:  u.ImageURL,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// UsersOut converts a slice of documents.
func UsersOut(users []User) []UserOut {
	out := make([]UserOut, 0, len(users))
	for _, u := range users {
		out = append(out, u.Out())
	}
	return out
}
