package research

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuery(t *testing.T) {
	q, err := NewQuery("  Python programming ", 2, "")
	require.NoError(t, err)
	assert.Equal(t, Query{Text: "Python programming", MaxResults: 2, Style: StyleBullet}, q)

	q, err = NewQuery("x", 50, "TABLE")
	require.NoError(t, err)
	assert.Equal(t, MaxResultsCap, q.MaxResults)
	assert.Equal(t, StyleTable, q.Style)

	q, err = NewQuery("x", 1, "haiku")
	require.NoError(t, err)
	assert.Equal(t, Style("haiku"), q.Style)

	_, err = NewQuery("   ", 3, "")
	assert.ErrorIs(t, err, ErrEmptyQuery)
	_, err = NewQuery("x", 0, "")
	assert.ErrorIs(t, err, ErrInvalidMaxCount)
}

func TestResult_JSONShape(t *testing.T) {
	res := Result{
		Query:   "q",
		Summary: "s",
		Sources: []Source{
			{Title: StringPtr("T"), URL: "https://a", Date: StringPtr("2024-01-01"), Text: "a"},
			{URL: "", Text: "b"},
		},
	}
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"query":"q","summary":"s","sources":[
		{"title":"T","url":"https://a","date":"2024-01-01","text":"a"},
		{"title":null,"url":"","date":null,"text":"b"}]}`, string(b))
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr("  "))
	assert.Equal(t, "x", Deref(StringPtr(" x ")))
	assert.Equal(t, "", Deref(nil))
}
