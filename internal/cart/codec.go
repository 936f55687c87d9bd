package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Wire format, shared with the original browser storage:
// [{"id":1,"name":"NIGHTHAWK X2 PRO","price":349,"img":"nighthawk-x2-pro","qty":2}]

func encodeLines(lines []Line) ([]byte, error) {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("id")
		e.Int(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("price")
		e.Num(jx.Num(l.Price.String()))
		e.FieldStart("img")
		e.Str(l.ImageKey)
		e.FieldStart("qty")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes(), nil
}

func decodeLines(data []byte) ([]Line, error) {
	d := jx.DecodeBytes(data)

	var lines []Line
	if err := d.Arr(func(d *jx.Decoder) error {
		var l Line
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "id":
				v, err := d.Int()
				if err != nil {
					return errors.Wrap(err, "id")
				}
				l.ProductID = v
			case "name":
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "name")
				}
				l.Name = v
			case "price":
				n, err := d.Num()
				if err != nil {
					return errors.Wrap(err, "price")
				}
				p, err := decimal.NewFromString(n.String())
				if err != nil {
					return errors.Wrap(err, "price value")
				}
				l.Price = p
			case "img":
				v, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "img")
				}
				l.ImageKey = v
			case "qty":
				v, err := d.Int()
				if err != nil {
					return errors.Wrap(err, "qty")
				}
				l.Quantity = v
			default:
				return d.Skip()
			}
			return nil
		}); err != nil {
			return err
		}

		// Stored blobs predate validation, so guard the invariants here:
		// drop lines that could never have been written by this store.
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return nil
		}
		lines = append(lines, l)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart lines")
	}

	return lines, nil
}
