package county

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"Co. Dublin", true},
		{"Dublin", true},
		{"dublin", true},
		{"CO. CORK", true},
		{"co. kerry", true},
		{"  Galway  ", true},
		{"", false},
		{"   ", false},
		{"Dublin City", false},
		{"Dubln", false},
		{"Co.Dublin", false},
		{"County Dublin", false},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValid(tc.input))
		})
	}
}

func TestEveryReferenceCountyValidatesWithAndWithoutPrefix(t *testing.T) {
	all := All()
	assert.Len(t, all, 32)

	for _, c := range all {
		assert.True(t, IsValid(c), c)
		assert.True(t, IsValid(c[len(Prefix):]), c)
	}
}

func TestNormalize(t *testing.T) {
	got, ok := Normalize("wexford")
	assert.True(t, ok)
	assert.Equal(t, "Co. Wexford", got)

	_, ok = Normalize("Atlantis")
	assert.False(t, ok)
}

func TestDisplayAndEqual(t *testing.T) {
	assert.Equal(t, "Co. Dublin", Display("Dublin"))
	assert.Equal(t, "Co. Dublin", Display("Co. Dublin"))
	assert.Equal(t, "", Display(""))

	assert.True(t, Equal("Dublin", "co. dublin"))
	assert.False(t, Equal("Dublin", "Cork"))
}

func TestAllReturnsCopy(t *testing.T) {
	a := All()
	a[0] = "changed"
	assert.Equal(t, "Co. Antrim", All()[0])
}
