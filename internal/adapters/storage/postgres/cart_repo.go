package postgres

import (
	"context"
	"database/sql"

	"pet-adoption-marketplace/internal/domain/cart"
)

type ProductsRepo struct {
	db *sql.DB
}

func NewProductsRepo(db *sql.DB) *ProductsRepo {
	return &ProductsRepo{db: db}
}

const productColumns = `
	id, name, category, pet_type,
	price_cents, sale_price_cents,
	description, image_url, stock, created_at`

func (r *ProductsRepo) CreateProduct(ctx context.Context, p cart.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		p.ID, p.Name, string(p.Category), p.PetType,
		p.PriceCents, p.SalePriceCents,
		p.Description, p.ImageURL, p.Stock, p.CreatedAt,
	)
	return mapErr(err)
}

func (r *ProductsRepo) GetProduct(ctx context.Context, id string) (cart.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *ProductsRepo) ListProducts(ctx context.Context, category cart.Category) ([]cart.Product, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if category == "" {
		rows, err = r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY name ASC`)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+productColumns+` FROM products WHERE category = $1 ORDER BY name ASC
		`, string(category))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]cart.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row scanner) (cart.Product, error) {
	var p cart.Product
	var category string
	if err := row.Scan(
		&p.ID, &p.Name, &category, &p.PetType,
		&p.PriceCents, &p.SalePriceCents,
		&p.Description, &p.ImageURL, &p.Stock, &p.CreatedAt,
	); err != nil {
		return cart.Product{}, mapErr(err)
	}
	p.Category = cart.Category(category)
	return p, nil
}

type CartRepo struct {
	db *sql.DB
}

func NewCartRepo(db *sql.DB) *CartRepo {
	return &CartRepo{db: db}
}

func (r *CartRepo) GetItem(ctx context.Context, userID, productID string) (cart.Item, error) {
	var it cart.Item
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, product_id, quantity, added_at
		FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID).Scan(&it.UserID, &it.ProductID, &it.Quantity, &it.AddedAt)
	if err != nil {
		return cart.Item{}, mapErr(err)
	}
	return it, nil
}

func (r *CartRepo) SaveItem(ctx context.Context, it cart.Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, added_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
	`, it.UserID, it.ProductID, it.Quantity, it.AddedAt)
	return mapErr(err)
}

func (r *CartRepo) RemoveItem(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return mapErr(err)
}

func (r *CartRepo) ListItems(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, product_id, quantity, added_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at ASC, product_id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]cart.Item, 0)
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.UserID, &it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return mapErr(err)
}
