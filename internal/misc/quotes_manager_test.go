package misc

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuoteManager(t *testing.T) {
	quotesCsv := `The groundwork for all happiness is good health.;Leigh Hunt;health
Walking is the best possible exercise.;Thomas Jefferson;fitness
The secret of getting ahead is getting started.;Mark Twain;motivational`

	qm, err := NewQuoteManager(csv.NewReader(strings.NewReader(quotesCsv)))
	require.NoError(t, err)
	require.NotNil(t, qm)
	require.Len(t, qm.Quotes, 3)

	assert.Equal(t, "Walking is the best possible exercise.", qm.Quotes[1].Text)
	assert.Equal(t, "Thomas Jefferson", qm.Quotes[1].Author)
	assert.Equal(t, "fitness", qm.Quotes[1].Genre)

	q := qm.RandomQuote()
	require.NotNil(t, q)
	assert.NotEmpty(t, q.Text)
}

func TestNewQuoteManager_invalidRow(t *testing.T) {
	quotesCsv := `quote without author and genre`

	_, err := NewQuoteManager(csv.NewReader(strings.NewReader(quotesCsv)))
	require.Error(t, err)
}

func TestNewQuoteManager_empty(t *testing.T) {
	_, err := NewQuoteManager(csv.NewReader(strings.NewReader("")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no quotes read")
}
