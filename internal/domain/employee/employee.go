package employee

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/office-lunch/internal/domain/apperr"
)

// ErrNotFound is returned when a requested employee does not exist.
var ErrNotFound = errors.New("employee not found")

// Employee is a person lunch orders are placed for.
type Employee struct {
	ID        string
	Name      string
	Contact   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Input carries the operator-editable fields of an employee.
type Input struct {
	Name    string
	Contact string
	Active  bool
}

// Validate trims the input and checks required fields.
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Contact = strings.TrimSpace(in.Contact)
	if in.Name == "" {
		return apperr.Invalid("name", "must not be empty")
	}
	return nil
}

// Repository defines persistence operations for employees.
type Repository interface {
	// List returns every employee, newest first.
	List(ctx context.Context) ([]Employee, error)
	Get(ctx context.Context, id string) (*Employee, error)
	Create(ctx context.Context, e *Employee) error
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id string) error
}

// Active returns the employees that may be selected for a new order.
func Active(employees []Employee) []Employee {
	out := make([]Employee, 0, len(employees))
	for _, e := range employees {
		if e.Active {
			out = append(out, e)
		}
	}
	return out
}
