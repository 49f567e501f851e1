// Package domain defines the core domain models for the conversation store.
package domain

import "github.com/google/uuid"

// Person is the author of a message. Identity is carried by ID; Name and
// Nick are display values and may change between observations of the same
// person. The relational schema stores only name and nick, so a person
// loaded from storage carries a fresh ID.
type Person struct {
	Name string `json:"name"`
	Nick string `json:"nick,omitempty"`
	ID   string `json:"id"`
}

// NewPerson creates a person with a fresh opaque identifier.
func NewPerson(name, nick string) Person {
	return Person{
		Name: name,
		Nick: nick,
		ID:   uuid.New().String(),
	}
}
