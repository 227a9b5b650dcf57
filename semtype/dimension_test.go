package semtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionReduced(t *testing.T) {
	d := Dimension{Num: 4, Den: -8}.reduce()
	assert.Equal(t, int64(-1), d.Num)
	assert.Equal(t, int64(2), d.Den)

	cm, ok := StringToDimension("cm")
	require.True(t, ok)
	sq := cm.Mul(cm)
	assert.Equal(t, int64(1), sq.Num)
	assert.Equal(t, int64(10000), sq.Den)
	assert.Equal(t, 2, sq.Coefficients[0])
}

func TestDimensionIdentity(t *testing.T) {
	m, _ := StringToDimension("m")
	assert.True(t, m.Mul(Scalar()).Equal(m))
	assert.True(t, m.Div(Scalar()).Equal(m))
}

func TestDimensionRoundTrip(t *testing.T) {
	a, _ := StringToDimension("cm")
	b, _ := StringToDimension("s")
	assert.True(t, a.Mul(b).Div(b).Equal(a))
}

func TestDimensionVelocity(t *testing.T) {
	ms, ok := StringToDimension("m/s")
	require.True(t, ok)
	assert.Equal(t, 1, ms.Coefficients[0])
	assert.Equal(t, -1, ms.Coefficients[2])
}

func TestCentimeterVsMeter(t *testing.T) {
	cm, _ := StringToDimension("cm")
	m, _ := StringToDimension("m")
	assert.False(t, cm.Equal(m))
	assert.True(t, cm.Equal(Dimension{Coefficients: [NumBaseUnits]int{1}, Num: 10, Den: 1000}))
}

func TestExtendDimensionTable(t *testing.T) {
	err := ExtendDimensionTable([]byte(`
ft:
  coefficients: [1, 0, 0, 0, 0, 0, 0]
  num: 3048
  den: 10000
`))
	require.NoError(t, err)
	ft, ok := StringToDimension("ft")
	require.True(t, ok)
	assert.Equal(t, int64(381), ft.Num)
	assert.Equal(t, int64(1250), ft.Den)

	assert.Error(t, ExtendDimensionTable([]byte("bad:\n  den: 0\n")))
	assert.Error(t, ExtendDimensionTable([]byte(":::")))
}
