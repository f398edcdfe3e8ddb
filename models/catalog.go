package models

// CatalogIngredient is one entry of the static ingredient catalog.
type CatalogIngredient struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
