package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 16}

func TestHashVerify(t *testing.T) {
	phc, err := Hash(fast, "s3cret!")
	require.NoError(t, err)
	assert.True(t, Verify("s3cret!", phc))
	assert.False(t, Verify("s3cret?", phc))
}

func TestVerify_Malformed(t *testing.T) {
	assert.False(t, Verify("x", ""))
	assert.False(t, Verify("x", "$argon2i$v=19$m=1,t=1,p=1$AA$AA"))
	assert.False(t, Verify("x", "$argon2id$v=19$m=a,t=1,p=1$AA$AA"))
}

func TestHash_Empty(t *testing.T) {
	_, err := Hash(fast, "")
	assert.Error(t, err)
}

func TestPolicy_Check(t *testing.T) {
	p := Policy{MinLength: 8, MaxLength: 12, RequireUpper: true, RequireDigit: true, RequireSymbol: true}

	cases := []struct {
		name string
		in   string
		want []Violation
	}{
		{"ok", "Secret-123", nil},
		{"blank", "   ", []Violation{Blank}},
		{"short without digit", "Ab-cd", []Violation{TooShort, MissingDigit}},
		{"too long", "Abcdefgh-12345", []Violation{TooLong}},
		{"runes not bytes", "Ññññññ-1", nil},
		{"lowercase only", "abcdefghi", []Violation{MissingUpper, MissingDigit, MissingSymbol}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Check(tc.in)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrPolicy)
			var pe *PolicyError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.want, pe.Violations)
			assert.True(t, pe.Has(tc.want[0]))
		})
	}
}

func TestPolicyError_Message(t *testing.T) {
	err := Policy{MinLength: 8, RequireDigit: true}.Check("short")
	require.Error(t, err)
	assert.Equal(t, "password: too_short,missing_digit", err.Error())
}
