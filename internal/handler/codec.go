package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/office-lunch/internal/domain/apperr"
	"github.com/xenking/office-lunch/internal/domain/employee"
	"github.com/xenking/office-lunch/internal/domain/menu"
	"github.com/xenking/office-lunch/internal/domain/order"
)

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}

// Money is written as a JSON number with two decimals.
func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeEmployee(e *jx.Encoder, emp *employee.Employee) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(emp.ID)
	e.FieldStart("name")
	e.Str(emp.Name)
	e.FieldStart("contact")
	e.Str(emp.Contact)
	e.FieldStart("active")
	e.Bool(emp.Active)
	if !emp.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		encodeTime(e, emp.CreatedAt)
		e.FieldStart("updatedAt")
		encodeTime(e, emp.UpdatedAt)
	}
	e.ObjEnd()
}

func encodeMenuItem(e *jx.Encoder, it *menu.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("price")
	encodeMoney(e, it.Price)
	if !it.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		encodeTime(e, it.CreatedAt)
		e.FieldStart("updatedAt")
		encodeTime(e, it.UpdatedAt)
	}
	e.ObjEnd()
}

func encodeLine(e *jx.Encoder, l order.Line) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(l.ID)
	e.FieldStart("menuItemId")
	e.Str(l.MenuItemID)
	if l.MenuItemName != "" {
		e.FieldStart("menuItemName")
		e.Str(l.MenuItemName)
	}
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("unitPrice")
	encodeMoney(e, l.UnitPrice)
	e.FieldStart("totalPrice")
	encodeMoney(e, l.Total())
	e.ObjEnd()
}

// encodeOrder writes an order. Quotes have no id or timestamps and those
// fields are omitted.
func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	if o.ID != "" {
		e.FieldStart("id")
		e.Str(o.ID)
	}
	e.FieldStart("employeeId")
	e.Str(o.EmployeeID)
	e.FieldStart("employeeName")
	e.Str(o.EmployeeName())
	if o.Employee != nil {
		e.FieldStart("employee")
		encodeEmployee(e, o.Employee)
	}
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range o.Lines {
		encodeLine(e, l)
	}
	e.ArrEnd()
	e.FieldStart("total")
	encodeMoney(e, o.Total)
	e.FieldStart("amountPaid")
	encodeMoney(e, o.AmountPaid)
	e.FieldStart("amountReturned")
	encodeMoney(e, o.AmountReturned)
	e.FieldStart("changeAmount")
	encodeMoney(e, o.Change)
	e.FieldStart("balance")
	encodeMoney(e, o.Balance)
	e.FieldStart("paymentStatus")
	e.Str(string(o.Status))
	e.FieldStart("paymentStatusLabel")
	e.Str(o.Status.Label())
	e.FieldStart("orderDate")
	encodeTime(e, o.OrderDate)
	if !o.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		encodeTime(e, o.CreatedAt)
		e.FieldStart("updatedAt")
		encodeTime(e, o.UpdatedAt)
	}
	e.ObjEnd()
}

func encodeOrders(e *jx.Encoder, orders []order.Order) {
	e.ArrStart()
	for i := range orders {
		encodeOrder(e, &orders[i])
	}
	e.ArrEnd()
}

// decodeBody reads a JSON object from the request body and hands every field
// to field. Syntax errors become ValidationErrors on "body".
func decodeBody(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return apperr.Invalid("body", "request body is too large or unreadable")
	}
	if err := jx.DecodeBytes(data).Obj(field); err != nil {
		if apperr.IsValidation(err) {
			return err
		}
		return apperr.Invalid("body", "malformed JSON")
	}
	return nil
}

// decodeMoney accepts a JSON number, a numeric string or null (zero).
func decodeMoney(d *jx.Decoder, field string) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = n.String()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = strings.TrimSpace(s)
	case jx.Null:
		return decimal.Zero, d.Null()
	default:
		return decimal.Zero, apperr.Invalid(field, "must be a number")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperr.Invalid(field, "must be a number")
	}
	return v, nil
}

func decodeInt(d *jx.Decoder, field string) (int, error) {
	if d.Next() != jx.Number {
		return 0, apperr.Invalid(field, "must be an integer")
	}
	n, err := d.Int()
	if err != nil {
		return 0, apperr.Invalid(field, "must be an integer")
	}
	return n, nil
}

func decodeString(d *jx.Decoder, field string) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Null:
		return "", d.Null()
	}
	return "", apperr.Invalid(field, "must be a string")
}

// decodeTime accepts RFC 3339 timestamps and plain dates.
func decodeTime(d *jx.Decoder, field string) (time.Time, error) {
	s, err := decodeString(d, field)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Invalid(field, "must be an RFC 3339 timestamp or a date")
}

func decodeEmployeeInput(w http.ResponseWriter, r *http.Request) (employee.Input, error) {
	in := employee.Input{Active: true}
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			in.Name, err = decodeString(d, "name")
		case "contact":
			in.Contact, err = decodeString(d, "contact")
		case "active":
			if d.Next() != jx.Bool {
				return apperr.Invalid("active", "must be a boolean")
			}
			in.Active, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
	return in, err
}

func decodeMenuInput(w http.ResponseWriter, r *http.Request) (menu.Input, error) {
	var (
		in       menu.Input
		hasPrice bool
	)
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			in.Name, err = decodeString(d, "name")
		case "price":
			hasPrice = true
			in.Price, err = decodeMoney(d, "price")
		default:
			err = d.Skip()
		}
		return err
	})
	if err == nil && !hasPrice {
		err = apperr.Invalid("price", "price is required")
	}
	return in, err
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (order.Draft, error) {
	var dr order.Draft
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "employeeId":
			dr.EmployeeID, err = decodeString(d, "employeeId")
		case "items":
			err = decodeLines(d, &dr)
		case "amountPaid":
			dr.AmountPaid, err = decodeMoney(d, "amountPaid")
		case "amountReturned":
			dr.AmountReturned, err = decodeMoney(d, "amountReturned")
		case "orderDate":
			dr.OrderDate, err = decodeTime(d, "orderDate")
		default:
			err = d.Skip()
		}
		return err
	})
	return dr, err
}

func decodeLines(d *jx.Decoder, dr *order.Draft) error {
	if d.Next() != jx.Array {
		return apperr.Invalid("items", "must be an array")
	}
	return d.Arr(func(d *jx.Decoder) error {
		i := len(dr.Items)
		var li order.LineInput
		if d.Next() != jx.Object {
			return apperr.Invalid(itemField(i, ""), "must be an object")
		}
		err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "menuItemId":
				li.MenuItemID, err = decodeString(d, itemField(i, key))
			case "quantity":
				li.Quantity, err = decodeInt(d, itemField(i, key))
			default:
				err = d.Skip()
			}
			return err
		})
		if err != nil {
			return err
		}
		dr.Items = append(dr.Items, li)
		return nil
	})
}

func itemField(i int, key string) string {
	f := "items[" + strconv.Itoa(i) + "]"
	if key != "" {
		f += "." + key
	}
	return f
}
