package roadmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/KaleemAfrozShaik/PathFinder-Backend/internal/database"
)

var ErrNotFound = errors.New("roadmap not found")

// Repository handles roadmap data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// List returns all roadmaps, newest first
func (r *Repository) List(ctx context.Context) ([]*Roadmap, error) {
	var rows []*database.Roadmap
	err := r.db.NewSelect().
		Model(&rows).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list roadmaps: %w", err)
	}

	return mapDBRoadmaps(rows), nil
}

// GetByID retrieves a single roadmap
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Roadmap, error) {
	row := new(database.Roadmap)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get roadmap by id: %w", err)
	}

	return mapDBRoadmapToModel(row), nil
}

// ListByIDs returns the roadmaps matching the given ids, newest first.
// Missing ids are silently skipped.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Roadmap, error) {
	if len(ids) == 0 {
		return []*Roadmap{}, nil
	}

	var rows []*database.Roadmap
	err := r.db.NewSelect().
		Model(&rows).
		Where("id IN (?)", bun.In(ids)).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list roadmaps by ids: %w", err)
	}

	return mapDBRoadmaps(rows), nil
}

// Create inserts a new roadmap
func (r *Repository) Create(ctx context.Context, rm *Roadmap) (*Roadmap, error) {
	row := mapModelToDBRoadmap(rm)

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to create roadmap: %w", err)
	}

	return mapDBRoadmapToModel(row), nil
}

// Update applies partial changes: nil fields keep their stored value,
// a non-nil steps slice replaces the whole step list
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, description, careerPath *string, steps []Step) (*Roadmap, error) {
	q := r.db.NewUpdate().
		Model((*database.Roadmap)(nil)).
		Set("updated_at = now()").
		Where("id = ?", id)

	if title != nil {
		q = q.Set("title = ?", *title)
	}
	if description != nil {
		q = q.Set("description = ?", *description)
	}
	if careerPath != nil {
		q = q.Set("career_path = ?", *careerPath)
	}
	if steps != nil {
		q = q.Set("steps = ?", mapModelSteps(steps))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update roadmap: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes a roadmap
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*database.Roadmap)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete roadmap: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func mapDBRoadmaps(rows []*database.Roadmap) []*Roadmap {
	out := make([]*Roadmap, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapDBRoadmapToModel(row))
	}
	return out
}

func mapDBRoadmapToModel(row *database.Roadmap) *Roadmap {
	steps := make([]Step, 0, len(row.Steps))
	for _, s := range row.Steps {
		steps = append(steps, Step{
			Title:        s.Title,
			Content:      s.Content,
			ResourceLink: s.ResourceLink,
			Order:        s.Order,
		})
	}
	return &Roadmap{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		CareerPath:  row.CareerPath,
		Steps:       steps,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func mapModelToDBRoadmap(rm *Roadmap) *database.Roadmap {
	return &database.Roadmap{
		ID:          rm.ID,
		Title:       rm.Title,
		Description: rm.Description,
		CareerPath:  rm.CareerPath,
		Steps:       mapModelSteps(rm.Steps),
		CreatedBy:   rm.CreatedBy,
	}
}

func mapModelSteps(steps []Step) []database.RoadmapStep {
	out := make([]database.RoadmapStep, 0, len(steps))
	for _, s := range steps {
		out = append(out, database.RoadmapStep{
			Title:        s.Title,
			Content:      s.Content,
			ResourceLink: s.ResourceLink,
			Order:        s.Order,
		})
	}
	return out
}
