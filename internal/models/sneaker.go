package models

// CatalogItem holds one product extracted from a catalog page. Items are
// produced fresh on every scrape and are never written to the database
// directly.
type CatalogItem struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Brand string `json:"brand"`
}

// Sneaker is a persisted catalog record. The price is kept as the
// display-formatted text taken from the page, not as a numeric value.
type Sneaker struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Price string `db:"price" json:"price"`
	Brand string `db:"brand" json:"brand"`
}
