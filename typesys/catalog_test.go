package typesys

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

type animal interface {
	Legs() int
}

type pet interface {
	animal
	Name() string
}

type dog struct {
	Nick  string
	Age   int32
	Price decimal.Decimal
	Born  time.Time
	Owner *string
	Tags  []string
	hid   bool
}

func (d *dog) Legs() int { return 4 }
func (d *dog) Name() string { return d.Nick }
func (d *dog) Bark() (string, error) {
	if d.Nick == "" {
		return "", fmt.Errorf("silent")
	}

	return "woof " + d.Nick, nil
}

func TestCatalogTypeOf(t *testing.T) {
	c := NewCatalog()

	tests := []struct {
		name string
		rt   reflect.Type
		want string
		kind Kind
	}{
		{"int is long", reflect.TypeFor[int](), "Int64", KindInt64},
		{"float32", reflect.TypeFor[float32](), "Single", KindSingle},
		{"time", reflect.TypeFor[time.Time](), "DateTime", KindDateTime},
		{"duration", reflect.TypeFor[time.Duration](), "TimeSpan", KindTimeSpan},
		{"decimal", reflect.TypeFor[decimal.Decimal](), "Decimal", KindDecimal},
		{"any", reflect.TypeFor[any](), "Object", KindObject},
		{"pointer to int", reflect.TypeFor[*int32](), "Int32?", KindNullable},
		{"slice", reflect.TypeFor[[]string](), "String[]", KindArray},
		{"map", reflect.TypeFor[map[string]int32](), "Dictionary<String,Int32>", KindMap},
		{"struct", reflect.TypeFor[dog](), "dog", KindClass},
		{"interface", reflect.TypeFor[animal](), "animal", KindInterface},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.TypeOf(tt.rt)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.Name())
			assert.Equal(t, tt.kind, got.Kind())
		})
	}

	t.Run("struct and pointer share a type", func(t *testing.T) {
		assert.True(t, c.MustTypeOf(reflect.TypeFor[dog]()) == c.MustTypeOf(reflect.TypeFor[*dog]()))
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := c.TypeOf(reflect.TypeFor[chan int]())
		assert.IsError(t, err, ErrUnsupportedType)
	})
}

func TestStructMembers(t *testing.T) {
	c := NewCatalog()
	dt := c.MustTypeOf(reflect.TypeFor[dog]())
	owner := "ann"
	d := &dog{Nick: "rex", Age: 3, Owner: &owner, Born: time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC)}

	read := func(name string, recv any) any {
		t.Helper()

		m, ok := c.FindPropertyOrField(dt, name, false)
		assert.True(t, ok, name)

		v, err := m.Get(recv)
		assert.NoError(t, err)

		return v
	}

	assert.Equal(t, any("rex"), read("nick", d))
	assert.Equal(t, any(int32(3)), read("AGE", d))
	assert.Equal(t, any("ann"), read("Owner", d))
	assert.Equal(t, any(int64(4)), read("Legs", d))
	assert.Equal(t, any("woof rex"), read("Bark", *d))
	assert.Zero(t, read("Tags", d))

	_, ok := c.FindPropertyOrField(dt, "hid", false)
	assert.False(t, ok)

	m, ok := c.FindPropertyOrField(dt, "Owner", false)
	assert.True(t, ok)
	assert.Equal(t, NullableOf(String), m.Type)

	bark, _ := c.FindPropertyOrField(dt, "Bark", false)
	_, err := bark.Get(&dog{})
	assert.EqualError(t, err, "silent")

	_, err = m.Get((*dog)(nil))
	assert.IsError(t, err, ErrNullReference)
}

func TestSelfAndBaseTypes(t *testing.T) {
	c := NewCatalog()
	at := c.MustTypeOf(reflect.TypeFor[animal]())
	pt := c.MustTypeOf(reflect.TypeFor[pet]())

	assert.Equal(t, []*Type{pt, at}, c.SelfAndBaseTypes(pt))
	assert.Equal(t, []*Type{Int32, Object}, c.SelfAndBaseTypes(Int32))
	assert.Equal(t, []*Type{Object}, c.SelfAndBaseTypes(Object))

	legs, ok := c.FindPropertyOrField(pt, "Legs", false)
	assert.True(t, ok)
	assert.True(t, legs.Declaring == at || legs.Declaring == pt)

	dt := c.MustTypeOf(reflect.TypeFor[dog]())
	assert.True(t, IsAssignableFrom(at, dt))
	assert.True(t, IsCompatibleWith(dt, pt))
	assert.False(t, IsAssignableFrom(dt, at))
}

type color int

func TestRegisterEnum(t *testing.T) {
	c := NewCatalog()

	et, err := c.RegisterEnum(reflect.TypeFor[color](), map[string]any{"Red": 0, "Green": 1, "Blue": 2})
	assert.NoError(t, err)
	assert.Equal(t, []string{"Blue", "Green", "Red"}, et.EnumNames())
	assert.True(t, et.IsEnum())
	assert.True(t, NullableOf(et).IsEnum())

	v, ok := et.EnumValue("GREEN")
	assert.True(t, ok)
	assert.Equal(t, any(color(1)), v)

	again := c.MustTypeOf(reflect.TypeFor[color]())
	assert.True(t, et == again)

	_, err = c.RegisterEnum(reflect.TypeFor[string](), nil)
	assert.IsError(t, err, ErrNotEnum)
}

func TestTypeOfValue(t *testing.T) {
	c := NewCatalog()

	got, err := c.TypeOfValue(nil)
	assert.NoError(t, err)
	assert.Equal(t, Object, got)

	got, err = c.TypeOfValue(int32(1))
	assert.NoError(t, err)
	assert.Equal(t, Int32, got)

	got, err = c.TypeOfValue(Func(func(...any) (any, error) { return nil, nil }))
	assert.NoError(t, err)
	assert.Equal(t, KindFunc, got.Kind())
}
