// Package codec encodes building records in the protobuf wire format read by
// the renderer:
//
//	message Vec2 { float x = 1; float y = 2; }
//	message Vec3 { float x = 1; float y = 2; float z = 3; }
//	message Building { Vec2 position = 1; Vec3 scale = 2; float rotation = 3; }
//	message Buildings { repeated Building buildings = 1; }
//
// Every float is written, zeros included, so each building has a fixed size.
package codec

import (
	"fmt"
	"math"

	"github.com/danielesteban/nyc/internal/domain/model"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldBuildings protowire.Number = 1

	fieldPosition protowire.Number = 1
	fieldScale    protowire.Number = 2
	fieldRotation protowire.Number = 3

	fieldX protowire.Number = 1
	fieldY protowire.Number = 2
	fieldZ protowire.Number = 3
)

// Encoded sizes, tags included.
const (
	floatFieldSize = 1 + 4
	vec2Size       = 2 * floatFieldSize
	vec3Size       = 3 * floatFieldSize
	buildingSize   = 2 + vec2Size + 2 + vec3Size + floatFieldSize
	// RecordSize is the encoded size of one entry of Buildings.
	RecordSize = 2 + buildingSize
)

// Encode serializes buildings as a Buildings message.
func Encode(buildings []model.Building) []byte {
	b := make([]byte, 0, len(buildings)*RecordSize)
	for i := range buildings {
		b = AppendBuilding(b, buildings[i])
	}
	return b
}

// AppendBuilding appends one Buildings.buildings entry to b.
func AppendBuilding(b []byte, bl model.Building) []byte {
	b = protowire.AppendTag(b, fieldBuildings, protowire.BytesType)
	b = protowire.AppendVarint(b, buildingSize)

	b = protowire.AppendTag(b, fieldPosition, protowire.BytesType)
	b = protowire.AppendVarint(b, vec2Size)
	b = appendFloat(b, fieldX, bl.Position.X)
	b = appendFloat(b, fieldY, bl.Position.Y)

	b = protowire.AppendTag(b, fieldScale, protowire.BytesType)
	b = protowire.AppendVarint(b, vec3Size)
	b = appendFloat(b, fieldX, bl.Scale.X)
	b = appendFloat(b, fieldY, bl.Scale.Y)
	b = appendFloat(b, fieldZ, bl.Scale.Z)

	return appendFloat(b, fieldRotation, bl.Rotation)
}

func appendFloat(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(float32(v)))
}

// Decode parses a Buildings message. Unknown fields are skipped.
func Decode(data []byte) ([]model.Building, error) {
	var out []model.Building
	err := walk(data, func(num protowire.Number, typ protowire.Type, v []byte, _ uint32) error {
		if num != fieldBuildings {
			return nil
		}
		if typ != protowire.BytesType {
			return fmt.Errorf("%w: buildings has wire type %d", ErrMalformed, typ)
		}
		bl, err := decodeBuilding(v)
		if err != nil {
			return err
		}
		out = append(out, bl)
		return nil
	})
	return out, err
}

func decodeBuilding(data []byte) (model.Building, error) {
	var bl model.Building
	err := walk(data, func(num protowire.Number, typ protowire.Type, v []byte, f uint32) error {
		switch {
		case num == fieldPosition && typ == protowire.BytesType:
			return walk(v, func(num protowire.Number, typ protowire.Type, _ []byte, f uint32) error {
				if typ != protowire.Fixed32Type {
					return nil
				}
				switch num {
				case fieldX:
					bl.Position.X = float64(math.Float32frombits(f))
				case fieldY:
					bl.Position.Y = float64(math.Float32frombits(f))
				}
				return nil
			})
		case num == fieldScale && typ == protowire.BytesType:
			return walk(v, func(num protowire.Number, typ protowire.Type, _ []byte, f uint32) error {
				if typ != protowire.Fixed32Type {
					return nil
				}
				switch num {
				case fieldX:
					bl.Scale.X = float64(math.Float32frombits(f))
				case fieldY:
					bl.Scale.Y = float64(math.Float32frombits(f))
				case fieldZ:
					bl.Scale.Z = float64(math.Float32frombits(f))
				}
				return nil
			})
		case num == fieldRotation && typ == protowire.Fixed32Type:
			bl.Rotation = float64(math.Float32frombits(f))
		}
		return nil
	})
	return bl, err
}

// walk calls fn for every field of a message. v is set for length-delimited
// fields, f for fixed32 fields.
func walk(data []byte, fn func(num protowire.Number, typ protowire.Type, v []byte, f uint32) error) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		data = data[n:]

		var (
			v []byte
			f uint32
		)
		switch typ {
		case protowire.BytesType:
			v, n = protowire.ConsumeBytes(data)
		case protowire.Fixed32Type:
			f, n = protowire.ConsumeFixed32(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
		}
		data = data[n:]

		if err := fn(num, typ, v, f); err != nil {
			return err
		}
	}
	return nil
}
