package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	valid := map[string]string{
		"89991234567":         "89991234567",
		"79991234567":         "89991234567",
		"+79991234567":        "89991234567",
		" +7 (999) 123-45-67": "89991234567",
		// The digit after "+" is replaced, whatever the country code.
		"+19991234567": "89991234567",
		"+89991234567": "89991234567",
	}
	for in, want := range valid {
		got, err := NormalizePhone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	invalid := []string{"", "+", "12345", "99991234567", "8999123456", "899912345678", "8999123456a", "+1999123456"}
	for _, in := range invalid {
		_, err := NormalizePhone(in)
		assert.ErrorIs(t, err, ErrInvalidFormat, in)
	}
}
