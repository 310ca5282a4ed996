package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// HerdService manages live animals and dressed carcasses: the staff-facing
// CRUD surface plus the append-only weight history the reconciliation job
// reads from.
type HerdService interface {
	CreateAnimal(ctx context.Context, in CreateAnimalInput) (*Animal, error)
	GetAnimals(ctx context.Context, status AnimalStatus) ([]Animal, error)
	GetAnimal(ctx context.Context, id int) (*Animal, error)
	UpdateAnimal(ctx context.Context, id int, in UpdateAnimalInput) (*Animal, error)
	DeleteAnimal(ctx context.Context, id int, actor AuditEntry) error

	// RecordWeight appends a weighing and updates the animal's current weight
	// in one transaction. It does not flip status; that is the reconciliation
	// job's responsibility.
	RecordWeight(ctx context.Context, animalID int, weight decimal.Decimal, date time.Time, measuredBy *int) (*Animal, error)
	GetWeightHistory(ctx context.Context, animalID int) ([]WeightEntry, error)

	// SetPrice is only valid for animals already ready for slaughter; pricing
	// an animal still on feed is rejected.
	SetPrice(ctx context.Context, animalID int, price decimal.Decimal) (*Animal, error)

	// UpdateStatus is the manual override for staff. Unlike the automated
	// flip it accepts any target status.
	UpdateStatus(ctx context.Context, animalID int, status AnimalStatus, actor AuditEntry) (*Animal, error)

	AddCarcass(ctx context.Context, in AddCarcassInput) (*Carcass, error)
	GetCarcasses(ctx context.Context, status CarcassStatus) ([]Carcass, error)
	UpdateCarcassStatus(ctx context.Context, id int, status CarcassStatus) (*Carcass, error)
	DeleteCarcass(ctx context.Context, id int, actor AuditEntry) error
}

// CreateAnimalInput carries the fields staff enter when registering an animal.
type CreateAnimalInput struct {
	Name          string
	Species       string
	Breed         string
	BirthDate     time.Time
	CurrentWeight decimal.Decimal
	CreatedBy     *int
}

// UpdateAnimalInput updates descriptive fields; nil pointers leave the column unchanged.
type UpdateAnimalInput struct {
	Name                *string
	Breed               *string
	VaccinationType     *string
	VaccinationDate     *time.Time
	NextVaccinationDate *time.Time
	VaccinationNotes    *string
}

// AddCarcassInput registers a carcass entered directly by staff, as opposed
// to one materialized by the reconciliation job.
type AddCarcassInput struct {
	AnimalID      *int
	Breed         string
	BirthDate     *time.Time
	SlaughterDate time.Time
	CarcassWeight decimal.Decimal
	Price         decimal.Decimal
	Description   *string
	CreatedBy     *int
}

type herdService struct {
	pool  *pgxpool.Pool
	audit AuditService
}

func NewHerdService(pool *pgxpool.Pool, audit AuditService) HerdService {
	return &herdService{pool: pool, audit: audit}
}

func (s *herdService) CreateAnimal(ctx context.Context, in CreateAnimalInput) (*Animal, error) {
	if in.Species == "" || in.Breed == "" {
		return nil, &InvalidInputError{Field: "animal", Reason: "species and breed are required"}
	}
	if in.CurrentWeight.IsNegative() {
		return nil, &InvalidInputError{Field: "current_weight", Reason: "cannot be negative"}
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO animals (name, species, breed, birth_date, current_weight, status, created_by)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7)
		RETURNING `+animalColumns+`
	`, in.Name, in.Species, in.Breed, in.BirthDate, in.CurrentWeight, AnimalFeeding, in.CreatedBy)

	a, err := scanAnimal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert animal: %w", err)
	}
	return a, nil
}

func (s *herdService) GetAnimals(ctx context.Context, status AnimalStatus) ([]Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM animals`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query animals: %w", err)
	}
	defer rows.Close()

	var animals []Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan animal: %w", err)
		}
		animals = append(animals, *a)
	}
	return animals, rows.Err()
}

func (s *herdService) GetAnimal(ctx context.Context, id int) (*Animal, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+animalColumns+` FROM animals WHERE id = $1`, id)
	a, err := scanAnimal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read animal %d: %w", id, err)
	}
	return a, nil
}

func (s *herdService) UpdateAnimal(ctx context.Context, id int, in UpdateAnimalInput) (*Animal, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE animals
		SET name = COALESCE($1, name),
		    breed = COALESCE($2, breed),
		    vaccination_type = COALESCE($3, vaccination_type),
		    vaccination_date = COALESCE($4, vaccination_date),
		    next_vaccination_date = COALESCE($5, next_vaccination_date),
		    vaccination_notes = COALESCE($6, vaccination_notes)
		WHERE id = $7
		RETURNING `+animalColumns+`
	`, in.Name, in.Breed, in.VaccinationType, in.VaccinationDate, in.NextVaccinationDate, in.VaccinationNotes, id)

	a, err := scanAnimal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update animal %d: %w", id, err)
	}
	return a, nil
}

func (s *herdService) DeleteAnimal(ctx context.Context, id int, actor AuditEntry) error {
	current, err := s.GetAnimal(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Weight history goes with the animal; carcasses and orders keep their
	// references for the paper trail.
	if _, err := tx.Exec(ctx, `DELETE FROM weights WHERE animal_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete weight history for animal %d: %w", id, err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete animal %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	actor.Action = ActionDelete
	actor.EntityType = "animal"
	actor.EntityID = &id
	actor.EntityName = current.DisplayName()
	if err := s.audit.RecordTx(ctx, tx, actor); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit animal deletion: %w", err)
	}
	return nil
}

func (s *herdService) RecordWeight(ctx context.Context, animalID int, weight decimal.Decimal, date time.Time, measuredBy *int) (*Animal, error) {
	if !weight.IsPositive() {
		return nil, &InvalidInputError{Field: "weight", Reason: "must be greater than zero"}
	}
	if date.IsZero() {
		date = time.Now()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO weights (animal_id, weight, date, measured_by)
		VALUES ($1, $2, $3, $4)
	`, animalID, weight, date, measuredBy); err != nil {
		return nil, fmt.Errorf("failed to insert weight entry: %w", err)
	}

	row := tx.QueryRow(ctx, `
		UPDATE animals
		SET current_weight = $1, last_weight_update = $2
		WHERE id = $3
		RETURNING `+animalColumns+`
	`, weight, date, animalID)

	a, err := scanAnimal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update animal %d weight: %w", animalID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit weight entry: %w", err)
	}
	return a, nil
}

func (s *herdService) GetWeightHistory(ctx context.Context, animalID int) ([]WeightEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, animal_id, weight, date, measured_by
		FROM weights
		WHERE animal_id = $1
		ORDER BY date DESC, id DESC
	`, animalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query weight history: %w", err)
	}
	defer rows.Close()

	var entries []WeightEntry
	for rows.Next() {
		var e WeightEntry
		if err := rows.Scan(&e.ID, &e.AnimalID, &e.Weight, &e.Date, &e.MeasuredBy); err != nil {
			return nil, fmt.Errorf("failed to scan weight entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *herdService) SetPrice(ctx context.Context, animalID int, price decimal.Decimal) (*Animal, error) {
	if !price.IsPositive() {
		return nil, &InvalidInputError{Field: "price", Reason: "must be greater than zero"}
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE animals
		SET price = $1
		WHERE id = $2 AND status = $3
		RETURNING `+animalColumns+`
	`, price, animalID, AnimalReadyForSlaughter)

	a, err := scanAnimal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing animal from one in the wrong state.
		if _, getErr := s.GetAnimal(ctx, animalID); getErr != nil {
			return nil, getErr
		}
		return nil, &InvalidInputError{Field: "price", Reason: "animal is not ready for slaughter"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set price for animal %d: %w", animalID, err)
	}
	return a, nil
}

func (s *herdService) UpdateStatus(ctx context.Context, animalID int, status AnimalStatus, actor AuditEntry) (*Animal, error) {
	switch status {
	case AnimalFeeding, AnimalReadyForSlaughter, AnimalSlaughtered, AnimalSold:
	default:
		return nil, &InvalidInputError{Field: "status", Reason: fmt.Sprintf("unknown animal status %q", status)}
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE animals
		SET status = $1
		WHERE id = $2
		RETURNING `+animalColumns+`
	`, status, animalID)

	a, err := scanAnimal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update animal %d status: %w", animalID, err)
	}

	actor.Action = ActionUpdate
	actor.EntityType = "animal"
	actor.EntityID = &animalID
	actor.EntityName = a.DisplayName()
	actor.Details = fmt.Sprintf("status set to %s", status)
	s.audit.Record(ctx, actor)
	return a, nil
}

func (s *herdService) AddCarcass(ctx context.Context, in AddCarcassInput) (*Carcass, error) {
	if in.Breed == "" {
		return nil, &InvalidInputError{Field: "breed", Reason: "must not be empty"}
	}
	if !in.CarcassWeight.IsPositive() {
		return nil, &InvalidInputError{Field: "carcass_weight", Reason: "must be greater than zero"}
	}
	if in.Price.IsNegative() {
		return nil, &InvalidInputError{Field: "price", Reason: "cannot be negative"}
	}
	if in.SlaughterDate.IsZero() {
		in.SlaughterDate = time.Now()
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO meat_carcasses
		(animal_id, breed, birth_date, slaughter_date, carcass_weight, price, status, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+carcassColumns+`
	`, in.AnimalID, in.Breed, in.BirthDate, in.SlaughterDate, in.CarcassWeight, in.Price,
		CarcassInStock, in.Description, in.CreatedBy)

	c, err := scanCarcass(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert carcass: %w", err)
	}
	return c, nil
}

func (s *herdService) GetCarcasses(ctx context.Context, status CarcassStatus) ([]Carcass, error) {
	query := `SELECT ` + carcassColumns + ` FROM meat_carcasses`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY slaughter_date DESC, id DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query carcasses: %w", err)
	}
	defer rows.Close()

	var carcasses []Carcass
	for rows.Next() {
		c, err := scanCarcass(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan carcass: %w", err)
		}
		carcasses = append(carcasses, *c)
	}
	return carcasses, rows.Err()
}

func (s *herdService) UpdateCarcassStatus(ctx context.Context, id int, status CarcassStatus) (*Carcass, error) {
	if status != CarcassInStock && status != CarcassSold {
		return nil, &InvalidInputError{Field: "status", Reason: fmt.Sprintf("unknown carcass status %q", status)}
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE meat_carcasses
		SET status = $1
		WHERE id = $2
		RETURNING `+carcassColumns+`
	`, status, id)

	c, err := scanCarcass(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update carcass %d status: %w", id, err)
	}
	return c, nil
}

func (s *herdService) DeleteCarcass(ctx context.Context, id int, actor AuditEntry) error {
	var breed string
	err := s.pool.QueryRow(ctx, `SELECT breed FROM meat_carcasses WHERE id = $1`, id).Scan(&breed)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read carcass %d: %w", id, err)
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM meat_carcasses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete carcass %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	actor.Action = ActionDelete
	actor.EntityType = "carcass"
	actor.EntityID = &id
	actor.EntityName = breed
	s.audit.Record(ctx, actor)
	return nil
}
