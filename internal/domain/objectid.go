package domain

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MsgInvalidID is the message attached to identifier validation failures.
const MsgInvalidID = "Invalid Id"

// ValidateID checks that candidate is a 24 character hex object identifier.
// It must run before any storage lookup keyed by candidate.
func ValidateID(candidate string) error {
	if len(candidate) != 24 || !primitive.IsValidObjectID(candidate) {
		return NewError(MsgInvalidID, http.StatusBadRequest)
	}
	return nil
}

// NewID mints a fresh object identifier in hex form.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
