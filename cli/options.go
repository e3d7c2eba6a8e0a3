package cli

import (
	"reflect"

	"github.com/alecthomas/kong"

	"go.hackfix.me/migrant/db/dialect"
)

// DialectMapper parses the database driver name into a dialect.Name.
type DialectMapper struct{}

var _ kong.Mapper = (*DialectMapper)(nil)

// Decode implements the kong.Mapper interface.
func (DialectMapper) Decode(kctx *kong.DecodeContext, target reflect.Value) error {
	var value string
	err := kctx.Scan.PopValueInto("driver", &value)
	if err != nil {
		return err
	}

	d, err := dialect.FromString(value)
	if err != nil {
		return err
	}

	target.Set(reflect.ValueOf(d))

	return nil
}
