package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammad-safakhou/horizon/models"
)

func report() models.Report {
	return models.Report{
		Topic: "future of energy",
		RunID: "run-1",
		Signals: models.OrderedSignals{
			models.CategoryTech: {
				{Title: "Perovskite tandem cells", Description: "record efficiency", Relevance: "This is relevant to solar", SourceURL: "https://a.example"},
			},
			models.CategoryEnvironmental: {
				{Title: "Seabed mining moratorium", Description: "nodules", Relevance: "This is relevant to minerals", SourceURL: "https://b.example"},
			},
			models.CategorySocial: {},
		},
	}
}

func TestIndexAndSearchInMemory(t *testing.T) {
	idx, err := Open("")
	require.NoError(t, err)
	defer idx.Close()

	n, err := idx.IndexReport(report())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := idx.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	hits, err := idx.Search("perovskite", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Perovskite tandem cells", hits[0].Title)
	assert.Equal(t, "Tech", hits[0].Category)
	assert.Equal(t, "run-1", hits[0].RunID)
	assert.Equal(t, 1, hits[0].Rank)

	all, err := idx.Search("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIndexPersistsOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "signals.bleve")
	idx, err := Open(dir)
	require.NoError(t, err)
	_, err = idx.IndexReport(report())
	require.NoError(t, err)
	require.NoError(t, idx.Close())

	idx, err = Open(dir)
	require.NoError(t, err)
	defer idx.Close()
	hits, err := idx.Search("seabed", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "https://b.example", hits[0].SourceURL)
}
