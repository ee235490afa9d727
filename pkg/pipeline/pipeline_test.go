package pipeline

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVectorizerIDFAndNorm(t *testing.T) {
	docs := []string{
		"lion tiger",
		"lion cheetah",
		"lion tiger jaguar",
	}
	v := NewTfidfVectorizer(1)
	vecs, err := v.FitTransform(docs)
	require.NoError(t, err)

	assert.Equal(t, []string{"cheetah", "jaguar", "lion", "tiger"}, v.Terms())

	lion := v.vocabulary["lion"]
	assert.InDelta(t, 1.0, v.idf[lion], 1e-12, "term in every document gets idf 1")
	tiger := v.vocabulary["tiger"]
	assert.InDelta(t, math.Log(4.0/3.0)+1, v.idf[tiger], 1e-12)

	for _, vec := range vecs {
		var norm float64
		for _, w := range vec.Values {
			norm += w * w
		}
		assert.InDelta(t, 1.0, norm, 1e-9)
	}
}

func TestVectorizerMinDFAndStopWords(t *testing.T) {
	docs := []string{"the lion roars", "the lion sleeps", "a tiger roars"}
	v := NewTfidfVectorizer(2)
	require.NoError(t, v.Fit(docs))
	assert.Equal(t, []string{"lion", "roars"}, v.Terms())

	v = NewTfidfVectorizer(5)
	assert.Error(t, v.Fit(docs), "nothing survives min_df=5")
}

func TestVectorizerIgnoresUnknownTerms(t *testing.T) {
	v := NewTfidfVectorizer(1)
	require.NoError(t, v.Fit([]string{"lion tiger", "tiger bear"}))

	vec := v.Transform("zebra giraffe okapi")
	assert.Empty(t, vec.Indices)

	vec = v.Transform("zebra lion")
	require.Len(t, vec.Indices, 1)
	assert.Equal(t, v.vocabulary["lion"], vec.Indices[0])
	assert.InDelta(t, 1.0, vec.Values[0], 1e-12)
}

func TestDensify(t *testing.T) {
	dense := Densify([]SparseVector{
		{Indices: []int{0, 2}, Values: []float64{0.5, 0.25}},
		{},
	}, 3)
	assert.Equal(t, [][]float64{{0.5, 0, 0.25}, {0, 0, 0}}, dense)
}

func TestTreePredict(t *testing.T) {
	tree := Tree{Nodes: []TreeNode{
		{Feature: 1, Threshold: 0.5, Left: 1, Right: 2},
		{Feature: -1, Value: -1},
		{Feature: -1, Value: 2},
	}}
	assert.Equal(t, -1.0, tree.Predict([]float64{9, 0.5}))
	assert.Equal(t, 2.0, tree.Predict([]float64{0, 0.7}))
	assert.Equal(t, -1.0, tree.Predict([]float64{0}), "missing feature reads as zero")
}

func TestGradientBoostingSeparates(t *testing.T) {
	X := [][]float64{
		{0, 0.9}, {0, 0.8}, {0, 0.7}, {0, 0.95},
		{0.6, 0}, {0.9, 0}, {0.4, 0.1}, {0, 0},
	}
	y := []float64{1, 1, 1, 1, 0, 0, 0, 0}

	g := NewGradientBoosting(BoostingOptions{Estimators: 30, LearningRate: 0.3, MaxDepth: 2, MinSamplesLeaf: 1})
	require.NoError(t, g.Fit(X, y))
	require.Len(t, g.Trees, 30)

	for i, row := range X {
		p := g.PredictProba(row)
		if y[i] == 1 {
			assert.Greater(t, p, 0.8, "row %d", i)
		} else {
			assert.Less(t, p, 0.2, "row %d", i)
		}
	}
}

func TestGradientBoostingNegativeValues(t *testing.T) {
	X := [][]float64{{-2}, {-1}, {0}, {1}, {2}, {3}}
	y := []float64{1, 1, 0, 0, 0, 0}
	g := NewGradientBoosting(BoostingOptions{Estimators: 20, LearningRate: 0.5, MaxDepth: 1, MinSamplesLeaf: 1})
	require.NoError(t, g.Fit(X, y))
	assert.Greater(t, g.PredictProba([]float64{-1.5}), 0.5)
	assert.Less(t, g.PredictProba([]float64{0.5}), 0.5)
}

func TestGradientBoostingConstantColumn(t *testing.T) {
	g := NewGradientBoosting(DefaultBoostingOptions())
	require.NoError(t, g.Fit([][]float64{{1}, {0}}, []float64{1, 1}))
	require.NotNil(t, g.Constant)
	assert.Equal(t, 1.0, g.PredictProba([]float64{0}))
	assert.Empty(t, g.Trees)
}

func trainingCorpus() ([]string, [][]float64) {
	docs := []string{
		"cat whiskers purr feline kitten",
		"kitten purr whiskers meow feline",
		"feline cat meow claws purr",
		"dog bark puppy fetch leash",
		"puppy bark leash kennel dog",
		"dog fetch kennel bark wag",
		"cat dog pets whiskers bark",
	}
	targets := [][]float64{
		{1, 0}, {1, 0}, {1, 0},
		{0, 1}, {0, 1}, {0, 1},
		{1, 1},
	}
	return docs, targets
}

func testOptions() Options {
	return Options{MinDF: 1, Boosting: BoostingOptions{Estimators: 25, LearningRate: 0.3, MaxDepth: 2, MinSamplesLeaf: 1}}
}

func TestPipelineFitPredict(t *testing.T) {
	docs, targets := trainingCorpus()
	p := New(testOptions(), quietLogger())
	require.NoError(t, p.Fit(docs, targets))
	assert.Equal(t, 2, p.Categories())

	probs, err := p.PredictProba("kitten purr whiskers meow feline")
	require.NoError(t, err)
	require.Len(t, probs, 2)
	assert.Greater(t, probs[0], probs[1])

	probs, err = p.PredictProba("dog fetch kennel bark wag")
	require.NoError(t, err)
	assert.Greater(t, probs[1], probs[0])

	_, err = p.PredictProba("entirely unseen vocabulary xyzzy")
	require.NoError(t, err, "out-of-vocabulary text is not an error")
}

func TestPipelineRefitFromScratch(t *testing.T) {
	docs, targets := trainingCorpus()
	p := New(testOptions(), quietLogger())
	require.NoError(t, p.Fit(docs, targets))
	first, _ := p.PredictProba("kitten purr")

	require.NoError(t, p.Fit(docs, targets))
	second, _ := p.PredictProba("kitten purr")
	assert.Equal(t, first, second)
}

func TestPipelineFitValidation(t *testing.T) {
	p := New(testOptions(), quietLogger())
	assert.Error(t, p.Fit(nil, nil))
	assert.Error(t, p.Fit([]string{"a b"}, [][]float64{{1}, {0}}))
	assert.Error(t, p.Fit([]string{"lion", "tiger"}, [][]float64{{1, 0}, {1}}))

	_, err := p.PredictProba("anything")
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestModelRoundTrip(t *testing.T) {
	docs, targets := trainingCorpus()
	p := New(testOptions(), quietLogger())
	require.NoError(t, p.Fit(docs, targets))

	m, err := p.Model()
	require.NoError(t, err)
	data, err := m.Encode()
	require.NoError(t, err)

	decoded, err := DecodeModel(data)
	require.NoError(t, err)
	restored, err := FromModel(decoded, quietLogger())
	require.NoError(t, err)

	for _, doc := range []string{"kitten whiskers", "bark kennel", "cat dog", "nothing known"} {
		want, _ := p.PredictProba(doc)
		got, err := restored.PredictProba(doc)
		require.NoError(t, err)
		assert.InDeltaSlice(t, want, got, 1e-12, doc)
	}
}

func TestFromModelRejectsBadInput(t *testing.T) {
	_, err := FromModel(&Model{SchemaVersion: 99}, quietLogger())
	assert.Error(t, err)

	bad := &Model{
		SchemaVersion: SchemaVersion,
		Vectorizer:    VectorizerModel{Terms: []string{"a"}, IDF: []float64{1}},
		Estimators: []EstimatorModel{{Trees: []Tree{{Nodes: []TreeNode{
			{Feature: 0, Threshold: 0.5, Left: 0, Right: 0},
		}}}}},
	}
	_, err = FromModel(bad, quietLogger())
	assert.Error(t, err, "self-referencing split would loop forever")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
	}{
		{"two", []float64{0.9, 0.6}},
		{"many", []float64{0.01, 0.2, 0.33, 0.9, 0.5}},
		{"tiny", []float64{1e-9, 3e-9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Normalize(tt.in)
			var total float64
			for _, v := range out {
				assert.GreaterOrEqual(t, v, 0.0)
				total += v
			}
			assert.InDelta(t, 1.0, total, 1e-9)
		})
	}

	assert.Equal(t, []float64{0, 0}, Normalize([]float64{0, 0}))

	in := []float64{0.5, 0.5}
	_ = Normalize(in)
	assert.Equal(t, []float64{0.5, 0.5}, in, "input is not modified")
}
