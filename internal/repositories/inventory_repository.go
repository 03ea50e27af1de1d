package repositories

import (
	"context"

	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InventoryRepository struct {
	DB *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{DB: db}
}

const vehicleSelect = `
	SELECT i.inv_id, i.inv_make, i.inv_model, i.inv_year, i.inv_description, i.inv_image, i.inv_thumbnail,
	       i.inv_price::float8, i.inv_miles, i.inv_color, i.inv_body, i.inv_transmission,
	       i.classification_id, i.created_at, c.classification_name
	FROM inventory i
	JOIN classification c ON c.classification_id = i.classification_id`

func scanVehicle(row pgx.Row) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.Description, &v.Image, &v.Thumbnail,
		&v.Price, &v.Miles, &v.Color, &v.Body, &v.Transmission,
		&v.ClassificationID, &v.CreatedAt, &v.ClassificationName)
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *InventoryRepository) ListClassifications(ctx context.Context) ([]models.Classification, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT classification_id, classification_name FROM classification ORDER BY classification_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []models.Classification{}
	for rows.Next() {
		var c models.Classification
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (r *InventoryRepository) CreateClassification(ctx context.Context, name string) (*models.Classification, error) {
	c := models.Classification{Name: name}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO classification (classification_name) VALUES ($1) RETURNING classification_id`, name,
	).Scan(&c.ID)
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *InventoryRepository) ListByClassification(ctx context.Context, classificationID int) ([]*models.Vehicle, error) {
	return r.list(ctx, vehicleSelect+` WHERE i.classification_id = $1 ORDER BY i.inv_make, i.inv_model`, classificationID)
}

func (r *InventoryRepository) ListAll(ctx context.Context) ([]*models.Vehicle, error) {
	return r.list(ctx, vehicleSelect+` ORDER BY c.classification_name, i.inv_make, i.inv_model`)
}

func (r *InventoryRepository) GetByID(ctx context.Context, id int) (*models.Vehicle, error) {
	return scanVehicle(r.DB.QueryRow(ctx, vehicleSelect+` WHERE i.inv_id = $1`, id))
}

func (r *InventoryRepository) Exists(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory WHERE inv_id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *InventoryRepository) Create(ctx context.Context, v *models.Vehicle) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO inventory (inv_make, inv_model, inv_year, inv_description, inv_image, inv_thumbnail,
		                        inv_price, inv_miles, inv_color, inv_body, inv_transmission, classification_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING inv_id, created_at`,
		v.Make, v.Model, v.Year, v.Description, v.Image, v.Thumbnail,
		v.Price, v.Miles, v.Color, v.Body, v.Transmission, v.ClassificationID,
	).Scan(&v.ID, &v.CreatedAt)
	return translate(err)
}

func (r *InventoryRepository) Update(ctx context.Context, v *models.Vehicle) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE inventory
		 SET inv_make = $1, inv_model = $2, inv_year = $3, inv_description = $4, inv_image = $5,
		     inv_thumbnail = $6, inv_price = $7, inv_miles = $8, inv_color = $9, inv_body = $10,
		     inv_transmission = $11, classification_id = $12
		 WHERE inv_id = $13`,
		v.Make, v.Model, v.Year, v.Description, v.Image, v.Thumbnail,
		v.Price, v.Miles, v.Color, v.Body, v.Transmission, v.ClassificationID, v.ID)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM inventory WHERE inv_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *InventoryRepository) list(ctx context.Context, sql string, args ...any) ([]*models.Vehicle, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := []*models.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}
