package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmapBasic(t *testing.T) {
	s := MakeBitmap(10)

	assert.False(t, s.IsSet(3))

	s.Set(3)
	s.Set(7)

	assert.True(t, s.IsSet(3))
	assert.True(t, s.IsSet(7))
	assert.False(t, s.IsSet(4))
	assert.Equal(t, 2, s.Size())
	assert.Equal(t, 3, s.First())

	s.Clear(3)

	assert.False(t, s.IsSet(3))
	assert.Equal(t, 1, s.Size())
}

func TestBitmapGrow(t *testing.T) {
	s := MakeBitmap(4)

	s.Set(200)

	assert.True(t, s.IsSet(200))
	assert.False(t, s.IsSet(199))
	assert.False(t, s.IsSet(1000))
}

func TestBitmapIntersects(t *testing.T) {
	a := MakeBitmap(128)
	b := MakeBitmap(128)

	a.Set(5)
	a.Set(100)
	b.Set(6)

	assert.False(t, a.Intersects(b))

	b.Set(100)

	assert.True(t, a.Intersects(b))
	assert.True(t, b.Intersects(a))
}

func TestBitmapCopy(t *testing.T) {
	a := MakeBitmap(64)
	a.Set(1)

	b := a.Copy()
	b.Set(2)

	assert.True(t, b.IsSet(1))
	assert.False(t, a.IsSet(2))
}

func TestBitmapRange(t *testing.T) {
	s := MakeBitmap(128)

	for _, i := range []int{1, 64, 90} {
		s.Set(i)
	}

	var got []int

	s.Range(func(i int) bool {
		got = append(got, i)
		return true
	})

	assert.Equal(t, []int{1, 64, 90}, got)

	got = got[:0]

	s.Range(func(i int) bool {
		got = append(got, i)
		return false
	})

	assert.Equal(t, []int{1}, got)
}

func TestBitmapReset(t *testing.T) {
	s := MakeBitmap(32)
	s.Set(9)

	s.Reset()

	assert.Equal(t, 0, s.Size())
	assert.Equal(t, -1, s.First())
}
