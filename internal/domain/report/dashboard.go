package report

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/menu"
	"github.com/xenking/office-lunch/internal/domain/order"
)

// RecentLimit is the number of orders shown in the dashboard's recent list.
const RecentLimit = 5

// Dashboard is the summary shown on the landing page.
type Dashboard struct {
	CashOnHand        decimal.Decimal
	IntermediaryDebt  decimal.Decimal
	EmployeeDebt      decimal.Decimal
	OrdersToday       int
	ActiveEmployees   int
	MenuItems         int
	EmployeesWithDebt int
	Recent            []order.Order
}

// Service loads a fresh snapshot of the store and aggregates it.
type Service struct {
	orders    order.Repository
	employees employee.Repository
	menu      menu.Repository
	reporter  *Reporter
}

// NewService creates a report Service.
func NewService(orders order.Repository, employees employee.Repository, menuItems menu.Repository, reporter *Reporter) *Service {
	return &Service{
		orders:    orders,
		employees: employees,
		menu:      menuItems,
		reporter:  reporter,
	}
}

// Reporter returns the aggregate calculator used by the service.
func (s *Service) Reporter() *Reporter { return s.reporter }

// Orders loads the full order collection for the report endpoints.
func (s *Service) Orders(ctx context.Context) ([]order.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Dashboard fetches orders, employees and menu items concurrently and
// computes every card from scratch. "Today" is the calendar day of now in
// now's location.
func (s *Service) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	var (
		orders    []order.Order
		employees []employee.Employee
		items     []menu.Item
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.orders.List(gctx)
		if err != nil {
			return errors.Wrap(err, "list orders")
		}
		return nil
	})
	g.Go(func() (err error) {
		employees, err = s.employees.List(gctx)
		if err != nil {
			return errors.Wrap(err, "list employees")
		}
		return nil
	})
	g.Go(func() (err error) {
		items, err = s.menu.List(gctx)
		if err != nil {
			return errors.Wrap(err, "list menu items")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{
		CashOnHand:        s.reporter.CashOnHand(orders),
		IntermediaryDebt:  s.reporter.IntermediaryDebt(orders),
		EmployeeDebt:      s.reporter.EmployeeDebt(orders),
		OrdersToday:       countOn(orders, now),
		ActiveEmployees:   len(employee.Active(employees)),
		MenuItems:         len(items),
		EmployeesWithDebt: len(s.reporter.EmployeeDebtByEmployee(orders)),
		Recent:            order.Recent(orders, RecentLimit),
	}, nil
}

func countOn(orders []order.Order, now time.Time) int {
	y, m, d := now.Date()
	n := 0
	for _, o := range orders {
		oy, om, od := o.OrderDate.In(now.Location()).Date()
		if oy == y && om == m && od == d {
			n++
		}
	}
	return n
}
