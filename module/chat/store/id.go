package store

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh record id (ObjectID hex) for either implementation.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
