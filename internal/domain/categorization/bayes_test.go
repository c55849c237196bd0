package categorization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBayesClassifier_Classify(t *testing.T) {
	cl, err := NewBayesClassifier(map[string][]string{
		CategoryFood:      {"STARBUCKS", "SAFEWAY COFFEE"},
		CategoryTransport: {"UBER", "SHELL GAS"},
	})
	require.NoError(t, err)

	out, err := cl.Classify(context.Background(), []string{"starbucks reserve", "shell", "qwerty"}, nil)
	require.NoError(t, err)
	require.Len(t, out, 3)

	require.NotEmpty(t, out[0])
	assert.Equal(t, CategoryFood, out[0][0].Label)
	assert.Greater(t, out[0][0].Confidence, out[0][1].Confidence)

	require.NotEmpty(t, out[1])
	assert.Equal(t, CategoryTransport, out[1][0].Label)

	assert.Empty(t, out[2], "unknown terms give no ranking")
}

func TestBayesClassifier_FiltersLabels(t *testing.T) {
	cl, err := NewBayesClassifier(map[string][]string{
		CategoryFood:      {"STARBUCKS"},
		CategoryTransport: {"UBER"},
	})
	require.NoError(t, err)

	out, err := cl.Classify(context.Background(), []string{"starbucks"}, []string{CategoryTransport})
	require.NoError(t, err)
	require.Len(t, out[0], 1)
	assert.Equal(t, CategoryTransport, out[0][0].Label)
}

func TestBayesClassifier_NeedsTwoClasses(t *testing.T) {
	_, err := NewBayesClassifier(map[string][]string{CategoryFood: {"STARBUCKS"}, CategoryOther: nil})
	assert.Error(t, err)
}

func TestBayesClassifier_FromDictionaryAndRules(t *testing.T) {
	kw, err := LoadKeywords(keywordsFile)
	require.NoError(t, err)

	cl, err := NewBayesClassifier(TrainingSet(kw, DefaultRules()))
	require.NoError(t, err)

	out, err := cl.Classify(context.Background(), []string{"ACME PAYROLL"}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out[0])
	assert.Equal(t, CategoryIncome, out[0][0].Label)
}

func TestBayesClassifier_HonorsContext(t *testing.T) {
	cl, err := NewBayesClassifier(map[string][]string{
		CategoryFood:      {"STARBUCKS"},
		CategoryTransport: {"UBER"},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cl.Classify(ctx, []string{"uber"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
