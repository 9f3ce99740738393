package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	input := []byte("customer_id,tenure_months,monthly_spend\nc-1,12,49.90\nc-2,3,19.00\n")

	rows, err := Decode(input)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, Row{"customer_id": "c-1", "tenure_months": "12", "monthly_spend": "49.90"}, rows[0])
	assert.Equal(t, Row{"customer_id": "c-2", "tenure_months": "3", "monthly_spend": "19.00"}, rows[1])
}

func TestDecodeSkipsEmptyLines(t *testing.T) {
	input := []byte("a,b\n1,2\n\n\n3,4\n")

	rows, err := Decode(input)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "3", rows[1]["a"])
}

func TestDecodePreservesRowOrder(t *testing.T) {
	input := []byte("id\nfirst\nsecond\nthird\n")

	rows, err := Decode(input)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "first", rows[0]["id"])
	assert.Equal(t, "second", rows[1]["id"])
	assert.Equal(t, "third", rows[2]["id"])
}

func TestDecodeRejectsMismatchedColumnCount(t *testing.T) {
	// Strict policy: rows must match the header width exactly.
	for _, input := range []string{
		"a,b\n1,2,3\n", // too many fields
		"a,b\n1\n",     // too few fields
	} {
		_, err := Decode([]byte(input))
		assert.ErrorIs(t, err, ErrMalformed, "input=%q", input)
	}
}

func TestDecodeRejectsEmptyInput(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeHeaderOnly(t *testing.T) {
	rows, err := Decode([]byte("a,b\n"))
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
