package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/office-lunch/internal/domain/apperr"
	"github.com/xenking/office-lunch/internal/domain/employee"
)

const (
	employeeColumns = `id, name, contact, active, created_at, updated_at`

	listEmployeesSQL = `SELECT ` + employeeColumns + ` FROM employees ORDER BY created_at DESC, id`

	getEmployeeSQL = `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	createEmployeeSQL = `INSERT INTO employees (id, name, contact, active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	updateEmployeeSQL = `UPDATE employees SET name = $2, contact = $3, active = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	deleteEmployeeSQL = `DELETE FROM employees WHERE id = $1`
)

var _ employee.Repository = (*EmployeeRepository)(nil)

// EmployeeRepository implements employee.Repository backed by PostgreSQL.
type EmployeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository returns an EmployeeRepository that uses the given pool.
func NewEmployeeRepository(pool *pgxpool.Pool) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// List returns every employee, newest first.
func (r *EmployeeRepository) List(ctx context.Context) ([]employee.Employee, error) {
	rows, err := r.pool.Query(ctx, listEmployeesSQL)
	if err != nil {
		return nil, apperr.Persistence("listing employees", err)
	}
	out, err := pgx.CollectRows(rows, scanEmployee)
	if err != nil {
		return nil, apperr.Persistence("listing employees", err)
	}
	return out, nil
}

// Get returns a single employee by id.
func (r *EmployeeRepository) Get(ctx context.Context, id string) (*employee.Employee, error) {
	rows, err := r.pool.Query(ctx, getEmployeeSQL, id)
	if err != nil {
		return nil, apperr.Persistence("getting employee", err)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEmployee)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrNotFound
		}
		return nil, apperr.Persistence("getting employee", err)
	}
	return &e, nil
}

// Create inserts e and fills in its timestamps.
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	err := r.pool.QueryRow(ctx, createEmployeeSQL, e.ID, e.Name, e.Contact, e.Active).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	return apperr.Persistence("creating employee", err)
}

// Update stores the editable fields of e.
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	var updated time.Time
	err := r.pool.QueryRow(ctx, updateEmployeeSQL, e.ID, e.Name, e.Contact, e.Active).Scan(&updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.ErrNotFound
		}
		return apperr.Persistence("updating employee", err)
	}
	e.UpdatedAt = updated
	return nil
}

// Delete removes the employee. Orders referencing it are kept.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteEmployeeSQL, id)
	if err != nil {
		return apperr.Persistence("deleting employee", err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.CollectableRow) (employee.Employee, error) {
	var e employee.Employee
	err := row.Scan(&e.ID, &e.Name, &e.Contact, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
