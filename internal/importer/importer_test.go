package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvella/finvella/internal/finance"
	"github.com/finvella/finvella/internal/importer"
)

func TestParse_BasicStatement(t *testing.T) {
	csv := strings.Join([]string{
		"Date,Description,Amount,Category",
		"2024-01-15,Coffee,3.50,Food",
		"2024-01-16,Metro card,\"1,250.00\",Transport",
	}, "\n")

	rows, err := importer.NewService().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, importer.Row{
		Description: "Coffee",
		Amount:      3.5,
		Category:    finance.CategoryFood,
		Date:        "2024-01-15",
	}, rows[0])

	assert.Equal(t, 1250.0, rows[1].Amount)
	assert.Equal(t, finance.CategoryTransport, rows[1].Category)
}

func TestParse_EuropeanAmounts(t *testing.T) {
	csv := strings.Join([]string{
		"date,description,amount",
		"2024-02-01,Rent,\"1.234,56\"",
		"2024-02-02,Snack,\"-3,20\"",
	}, "\n")

	rows, err := importer.NewService().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1234.56, rows[0].Amount)

	// Debits come in negative; expenses store the magnitude.
	assert.Equal(t, 3.2, rows[1].Amount)
}

func TestParse_UnknownCategoryFallsBackToOther(t *testing.T) {
	csv := "date,description,amount,category\n2024-03-01,Mystery,10.00,NotACategory\n"

	rows, err := importer.NewService().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, finance.CategoryOther, rows[0].Category)
}

func TestParse_MissingCategoryColumn(t *testing.T) {
	csv := "date,description,amount\n2024-03-01,Lunch,12.00\n"

	rows, err := importer.NewService().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, finance.CategoryOther, rows[0].Category)
}

func TestParse_Windows1252Statement(t *testing.T) {
	// "Café" with é encoded as Windows-1252 0xE9.
	raw := []byte("date,description,amount\n2024-03-02,Caf\xe9,4.00\n")

	rows, err := importer.NewService().Parse(strings.NewReader(string(raw)))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Café", rows[0].Description)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{
			name:    "empty statement",
			csv:     "",
			wantErr: "empty statement",
		},
		{
			name:    "missing amount column",
			csv:     "date,description\n2024-01-01,Lunch\n",
			wantErr: `missing "amount" column`,
		},
		{
			name:    "empty description",
			csv:     "date,description,amount\n2024-01-01,,5.00\n",
			wantErr: "line 2: empty description",
		},
		{
			name:    "bad amount",
			csv:     "date,description,amount\n2024-01-01,Lunch,abc\n",
			wantErr: "line 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := importer.NewService().Parse(strings.NewReader(tt.csv))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
