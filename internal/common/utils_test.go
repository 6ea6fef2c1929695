package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "россия", Normalize("  Россия \n"))
	assert.Equal(t, "красноярский край", Normalize("КРАСНОЯРСКИЙ Край"))
	assert.Equal(t, "", Normalize("   "))
}

func TestStripThousands(t *testing.T) {
	assert.Equal(t, "12345", StripThousands("12,345"))
	assert.Equal(t, "1234567", StripThousands("1,234,567"))
	assert.Equal(t, "1234", StripThousands("1 234"))
	assert.Equal(t, "42", StripThousands("42"))
}
