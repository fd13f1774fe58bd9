package types

import "time"

// Product represents an item in the catalog.
type Product struct {
	// ID is the opaque unique identifier assigned by the store.
	ID string `json:"id" db:"id"`

	// Name is the human-readable product name.
	Name string `json:"name" db:"name"`

	// Description contains the full product description.
	Description string `json:"description" db:"description"`

	// PriceCents is the unit price in the smallest currency unit.
	PriceCents int64 `json:"price_cents" db:"price_cents"`

	// Quantity is the stock on hand. Never negative; the store enforces
	// this with a CHECK constraint.
	Quantity int `json:"quantity" db:"quantity"`

	// ImageKey is the object storage key of the product image, empty
	// until an image is uploaded.
	ImageKey string `json:"image_key,omitempty" db:"image_key"`

	// CreatedAt is the timestamp at which the product was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
