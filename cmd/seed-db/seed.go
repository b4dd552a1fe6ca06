package main

import (
	"io/fs"
	"os"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/office-lunch/db"
	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/menu"
)

func readSeed(path, embedded string) ([]byte, error) {
	if path == "" {
		return fs.ReadFile(db.Seed, embedded)
	}
	return os.ReadFile(path)
}

func loadEmployees(path string) ([]employee.Employee, error) {
	data, err := readSeed(path, "seed/employees.json")
	if err != nil {
		return nil, err
	}
	return parseEmployees(data)
}

func loadMenuItems(path string) ([]menu.Item, error) {
	data, err := readSeed(path, "seed/menu_items.json")
	if err != nil {
		return nil, err
	}
	return parseMenuItems(data)
}

// parseEmployees decodes a JSON array of employees. Active defaults to true.
func parseEmployees(data []byte) ([]employee.Employee, error) {
	var out []employee.Employee
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		e := employee.Employee{Active: true}
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				e.ID, err = d.Str()
			case "name":
				e.Name, err = d.Str()
			case "contact":
				e.Contact, err = d.Str()
			case "active":
				e.Active, err = d.Bool()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		in := employee.Input{Name: e.Name, Contact: e.Contact, Active: e.Active}
		if e.ID == "" {
			return errors.Errorf("employee #%d: id is required", len(out))
		}
		if err := in.Validate(); err != nil {
			return errors.Wrapf(err, "employee %s", e.ID)
		}
		e.Name, e.Contact = in.Name, in.Contact
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode employees")
	}
	return out, nil
}

// parseMenuItems decodes a JSON array of menu items. Prices may be numbers
// or decimal strings.
func parseMenuItems(data []byte) ([]menu.Item, error) {
	var out []menu.Item
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var it menu.Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				it.ID, err = d.Str()
			case "name":
				it.Name, err = d.Str()
			case "price":
				it.Price, err = decodePrice(d)
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		if it.ID == "" {
			return errors.Errorf("menu item #%d: id is required", len(out))
		}
		in := menu.Input{Name: it.Name, Price: it.Price}
		if err := in.Validate(); err != nil {
			return errors.Wrapf(err, "menu item %s", it.ID)
		}
		it.Name, it.Price = in.Name, in.Price
		out = append(out, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode menu items")
	}
	return out, nil
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	}
}
