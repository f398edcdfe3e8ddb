package catalog

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"pantrypal/models"
)

// MaxResults caps one search response.
const MaxResults = 50

//go:embed data/ingredients.csv
var embedded []byte

// Catalog is the fixed ingredient list, loaded once at startup.
type Catalog struct {
	items []models.CatalogIngredient
}

// Load reads the catalog from path, or the built-in list when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(bytes.NewReader(embedded))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads CSV with an id and a name column. Header order is free and
// malformed rows are skipped.
func Parse(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	idCol, nameCol := -1, -1
	for i, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "id", "_id":
			idCol = i
		case "name":
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return nil, errors.New("catalog needs id and name columns")
	}

	c := &Catalog{}
	seen := map[string]struct{}{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(record) != len(headers) {
			continue
		}
		id := strings.TrimSpace(record[idCol])
		name := strings.TrimSpace(record[nameCol])
		if id == "" || name == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		c.items = append(c.items, models.CatalogIngredient{ID: id, Name: name})
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.items) }

// Search returns up to MaxResults entries whose name contains query,
// ignoring case, skipping ids in exclude.
func (c *Catalog) Search(query string, exclude map[string]struct{}) []models.CatalogIngredient {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.CatalogIngredient, 0, MaxResults)
	for _, item := range c.items {
		if len(out) == MaxResults {
			break
		}
		if _, skip := exclude[item.ID]; skip {
			continue
		}
		if strings.Contains(strings.ToLower(item.Name), query) {
			out = append(out, item)
		}
	}
	return out
}
