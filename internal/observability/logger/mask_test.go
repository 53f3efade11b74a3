package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"John.Doe@Gmail.com", "j…@g….com"},
		{" a@b.io ", "a@b.io"},
		{"", ""},
		{"abc", "***"},
		{"nodomain", "n…n"},
		{"x@mail.co.uk", "x@m….co.uk"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskEmail(tt.in), tt.in)
	}
}

func TestEmailFieldIsMasked(t *testing.T) {
	f := Email("ana@example.com")
	assert.Equal(t, "email", f.Key)
	assert.Equal(t, "a…@e….com", f.String)
}
