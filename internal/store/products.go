package store

import "database/sql"

// Product is a persisted Product row (§3).
type Product struct {
	Category  string
	ProductID string
	Brand     string
	Model     string
	Variant   string
	SeedURLs  []string
	Status    string
}

// UpsertProduct creates or updates a product row.
func (s *Store) UpsertProduct(p Product) error {
	seedURLs := joinConstraints(p.SeedURLs)
	_, err := s.db.Exec(`INSERT INTO products (category, product_id, brand, model, variant, seed_urls, status)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT(category, product_id) DO UPDATE SET
			brand=excluded.brand, model=excluded.model, variant=excluded.variant,
			seed_urls=excluded.seed_urls, status=excluded.status`,
		p.Category, p.ProductID, p.Brand, p.Model, p.Variant, seedURLs, p.Status)
	return err
}

// ProductByID fetches a single product, or ok=false if absent.
func (s *Store) ProductByID(category, productID string) (Product, bool, error) {
	var p Product
	var seedURLs string
	err := s.db.QueryRow(`SELECT category, product_id, brand, model, variant, seed_urls, status
		FROM products WHERE category=? AND product_id=?`, category, productID).Scan(
		&p.Category, &p.ProductID, &p.Brand, &p.Model, &p.Variant, &seedURLs, &p.Status)
	if err == sql.ErrNoRows {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	p.SeedURLs = splitConstraints(seedURLs)
	return p, true, nil
}

// ProductsByCategory lists every product in category.
func (s *Store) ProductsByCategory(category string) ([]Product, error) {
	rows, err := s.db.Query(`SELECT category, product_id, brand, model, variant, seed_urls, status
		FROM products WHERE category=?`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		var seedURLs string
		if err := rows.Scan(&p.Category, &p.ProductID, &p.Brand, &p.Model, &p.Variant, &seedURLs, &p.Status); err != nil {
			return nil, err
		}
		p.SeedURLs = splitConstraints(seedURLs)
		out = append(out, p)
	}
	return out, rows.Err()
}
