package frame

import (
	"fmt"
	"math"
	"strconv"
)

// Kind tags the element type of a column.
type Kind uint8

const (
	Invalid Kind = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Bool
)

var kindNames = [...]string{
	Invalid: "invalid",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	Bool:    "bool",
}

var kindSizes = [...]int64{
	Int8: 1, Int16: 2, Int32: 4, Int64: 8,
	Uint8: 1, Uint16: 2, Uint32: 4, Uint64: 8,
	Float32: 4, Float64: 8, Bool: 1,
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Size returns the element size in bytes.
func (k Kind) Size() int64 {
	if k == Invalid || int(k) >= len(kindSizes) {
		return 0
	}
	return kindSizes[k]
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s && Kind(k) != Invalid {
			return Kind(k), nil
		}
	}
	return Invalid, fmt.Errorf("%w: unknown kind %q", ErrTypeMismatch, s)
}

// Element is the set of Go types a column can hold.
type Element interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64 | bool
}

// Numeric is the set of numeric column element types.
type Numeric interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32 | float64
}

// Integral is the set of integer column element types.
type Integral interface {
	int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64
}

// KindOf returns the Kind for element type T.
func KindOf[T Element]() Kind {
	var z T
	switch any(z).(type) {
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case float32:
		return Float32
	case float64:
		return Float64
	case bool:
		return Bool
	}
	return Invalid
}

// buffer is the type-erased storage behind a column.
type buffer interface {
	kind() Kind
	len() int
	data() any
	defaultValue() any
	resized(n int) (buffer, error)
	compact(keep []bool, count, width int) int
}

type typed[T Element] struct {
	s   []T
	def T
}

func (b *typed[T]) kind() Kind        { return KindOf[T]() }
func (b *typed[T]) len() int          { return len(b.s) }
func (b *typed[T]) data() any         { return b.s }
func (b *typed[T]) defaultValue() any { return b.def }

func (b *typed[T]) resized(n int) (buffer, error) {
	s, err := makeFilled(n, b.def)
	if err != nil {
		return nil, err
	}
	copy(s, b.s)
	return &typed[T]{s: s, def: b.def}, nil
}

func (b *typed[T]) compact(keep []bool, count, width int) int {
	j := 0
	for i := 0; i < count; i++ {
		if !keep[i] {
			continue
		}
		if i != j {
			copy(b.s[j*width:(j+1)*width], b.s[i*width:(i+1)*width])
		}
		j++
	}
	return j
}

// makeFilled allocates n elements set to def. A runtime refusal to allocate
// (length out of range) is reported as an error instead of a panic.
func makeFilled[T Element](n int, def T) (s []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("%v", r)
		}
	}()
	s = make([]T, n)
	var zero T
	if def != zero {
		for i := range s {
			s[i] = def
		}
	}
	return s, nil
}

// Column is a named, typed buffer of capacity*width elements.
type Column struct {
	name  string
	width int
	buf   buffer
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the element kind.
func (c *Column) Kind() Kind { return c.buf.kind() }

// Width returns the number of elements per row (1 for scalar columns).
func (c *Column) Width() int { return c.width }

// IsVector reports whether the column was added with AddVector.
func (c *Column) IsVector() bool { return c.width > 1 }

// Len returns the number of elements in the backing buffer.
func (c *Column) Len() int { return c.buf.len() }

// Bytes returns the size of the backing buffer.
func (c *Column) Bytes() int64 { return int64(c.buf.len()) * c.Kind().Size() }

// Data returns the live backing slice as an any ([]T for the column kind).
func (c *Column) Data() any { return c.buf.data() }

// Default returns the fill value for new rows.
func (c *Column) Default() any { return c.buf.defaultValue() }

// AddScalar adds a one-element-per-row column filled with def.
func AddScalar[T Element](f *Frame, name string, def T) error {
	return addColumn(f, name, 1, def)
}

// AddVector adds a column holding width elements per row, filled with def.
func AddVector[T Element](f *Frame, name string, width int, def T) error {
	return addColumn(f, name, width, def)
}

func addColumn[T Element](f *Frame, name string, width int, def T) error {
	if width < 1 {
		return fmt.Errorf("%w: column %q width %d", ErrInvalidCapacity, name, width)
	}
	if _, ok := f.columns[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	if f.count > f.capacity {
		return fmt.Errorf("%w: count %d exceeds capacity %d", ErrInvalidCapacity, f.count, f.capacity)
	}
	n, ok := mulInt(f.capacity, width)
	if !ok {
		return &AllocationError{Column: name, Elements: -1, Bytes: -1, Reason: "element count overflows int"}
	}
	size := KindOf[T]().Size()
	if err := f.checkLimit(name, int64(n), int64(n)*size); err != nil {
		return err
	}
	s, err := makeFilled(n, def)
	if err != nil {
		return &AllocationError{Column: name, Elements: int64(n), Bytes: int64(n) * size, Reason: err.Error()}
	}
	f.columns[name] = &Column{name: name, width: width, buf: &typed[T]{s: s, def: def}}
	f.order = append(f.order, name)
	return nil
}

// AddKind adds a column whose kind is only known at runtime, such as when a
// column schema is read back from a snapshot. def may be nil (zero), a value of
// the column's element type, a float64/bool as decoded from JSON, or a string
// as written by FormatDefault.
func (f *Frame) AddKind(name string, kind Kind, width int, def any) error {
	switch kind {
	case Int8:
		return addConverted[int8](f, name, width, def)
	case Int16:
		return addConverted[int16](f, name, width, def)
	case Int32:
		return addConverted[int32](f, name, width, def)
	case Int64:
		return addConverted[int64](f, name, width, def)
	case Uint8:
		return addConverted[uint8](f, name, width, def)
	case Uint16:
		return addConverted[uint16](f, name, width, def)
	case Uint32:
		return addConverted[uint32](f, name, width, def)
	case Uint64:
		return addConverted[uint64](f, name, width, def)
	case Float32:
		return addConverted[float32](f, name, width, def)
	case Float64:
		return addConverted[float64](f, name, width, def)
	case Bool:
		return addConverted[bool](f, name, width, def)
	}
	return fmt.Errorf("%w: column %q has kind %s", ErrTypeMismatch, name, kind)
}

func addConverted[T Element](f *Frame, name string, width int, def any) error {
	v, err := convertDefault[T](def)
	if err != nil {
		return fmt.Errorf("column %q: %w", name, err)
	}
	return addColumn(f, name, width, v)
}

func convertDefault[T Element](def any) (T, error) {
	var zero T
	switch v := def.(type) {
	case nil:
		return zero, nil
	case T:
		return v, nil
	case float64:
		var out any
		switch any(zero).(type) {
		case bool:
			out = v != 0
		case int8:
			out = int8(v)
		case int16:
			out = int16(v)
		case int32:
			out = int32(v)
		case int64:
			out = int64(v)
		case uint8:
			out = uint8(v)
		case uint16:
			out = uint16(v)
		case uint32:
			out = uint32(v)
		case uint64:
			out = uint64(v)
		case float32:
			out = float32(v)
		case float64:
			out = v
		}
		return out.(T), nil
	case bool:
		if _, ok := any(zero).(bool); ok {
			return any(v).(T), nil
		}
	case string:
		return parseDefault[T](v)
	}
	return zero, fmt.Errorf("%w: default %v (%T) for %s column", ErrTypeMismatch, def, def, KindOf[T]())
}

// FormatDefault renders a column default as text that ParseDefault reads back
// exactly, including 64-bit integers and NaN or infinite floats.
func FormatDefault(v any) string {
	switch d := v.(type) {
	case int8:
		return strconv.FormatInt(int64(d), 10)
	case int16:
		return strconv.FormatInt(int64(d), 10)
	case int32:
		return strconv.FormatInt(int64(d), 10)
	case int64:
		return strconv.FormatInt(d, 10)
	case uint8:
		return strconv.FormatUint(uint64(d), 10)
	case uint16:
		return strconv.FormatUint(uint64(d), 10)
	case uint32:
		return strconv.FormatUint(uint64(d), 10)
	case uint64:
		return strconv.FormatUint(d, 10)
	case float32:
		return strconv.FormatFloat(float64(d), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(d, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(d)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// ParseDefault decodes text from FormatDefault into a value of kind's element
// type. The empty string is the zero value.
func ParseDefault(kind Kind, s string) (any, error) {
	switch kind {
	case Int8:
		return parseDefault[int8](s)
	case Int16:
		return parseDefault[int16](s)
	case Int32:
		return parseDefault[int32](s)
	case Int64:
		return parseDefault[int64](s)
	case Uint8:
		return parseDefault[uint8](s)
	case Uint16:
		return parseDefault[uint16](s)
	case Uint32:
		return parseDefault[uint32](s)
	case Uint64:
		return parseDefault[uint64](s)
	case Float32:
		return parseDefault[float32](s)
	case Float64:
		return parseDefault[float64](s)
	case Bool:
		return parseDefault[bool](s)
	}
	return nil, fmt.Errorf("%w: no default for kind %s", ErrTypeMismatch, kind)
}

func parseDefault[T Element](s string) (T, error) {
	var zero T
	if s == "" {
		return zero, nil
	}
	bits := int(KindOf[T]().Size()) * 8
	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case int8, int16, int32, int64:
		var n int64
		n, err = strconv.ParseInt(s, 10, bits)
		switch any(zero).(type) {
		case int8:
			out = int8(n)
		case int16:
			out = int16(n)
		case int32:
			out = int32(n)
		default:
			out = n
		}
	case uint8, uint16, uint32, uint64:
		var n uint64
		n, err = strconv.ParseUint(s, 10, bits)
		switch any(zero).(type) {
		case uint8:
			out = uint8(n)
		case uint16:
			out = uint16(n)
		case uint32:
			out = uint32(n)
		default:
			out = n
		}
	case float32:
		var x float64
		x, err = strconv.ParseFloat(s, 32)
		out = float32(x)
	case float64:
		out, err = strconv.ParseFloat(s, 64)
	case bool:
		out, err = strconv.ParseBool(s)
	}
	if err != nil {
		return zero, fmt.Errorf("%w: default %q for %s column: %v", ErrTypeMismatch, s, KindOf[T](), err)
	}
	return out.(T), nil
}

// Scalar returns the live backing slice of a scalar column. The slice spans
// the full capacity and is invalidated by Grow.
func Scalar[T Element](f *Frame, name string) ([]T, error) {
	c, err := f.lookup(name)
	if err != nil {
		return nil, err
	}
	if c.width != 1 {
		return nil, fmt.Errorf("%w: %q is a vector column of width %d", ErrTypeMismatch, name, c.width)
	}
	return sliceOf[T](c)
}

// VectorView is a row-major view over a vector column.
type VectorView[T Element] struct {
	Data  []T
	Width int
}

// Row returns the elements of row i.
func (v VectorView[T]) Row(i int) []T {
	return v.Data[i*v.Width : (i+1)*v.Width : (i+1)*v.Width]
}

// Rows returns the number of rows covered by the view.
func (v VectorView[T]) Rows() int {
	if v.Width == 0 {
		return 0
	}
	return len(v.Data) / v.Width
}

// Vector returns a live view over a column added with AddVector (or a scalar
// column, seen as width 1). The view is invalidated by Grow.
func Vector[T Element](f *Frame, name string) (VectorView[T], error) {
	c, err := f.lookup(name)
	if err != nil {
		return VectorView[T]{}, err
	}
	s, err := sliceOf[T](c)
	if err != nil {
		return VectorView[T]{}, err
	}
	return VectorView[T]{Data: s, Width: c.width}, nil
}

func sliceOf[T Element](c *Column) ([]T, error) {
	b, ok := c.buf.(*typed[T])
	if !ok {
		return nil, fmt.Errorf("%w: %q holds %s, not %s", ErrTypeMismatch, c.name, c.Kind(), KindOf[T]())
	}
	return b.s, nil
}

func mulInt(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}
