package slapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONDecoder_Decode(t *testing.T) {
	doc, err := JSONDecoder{}.Decode([]byte(sampleBody))
	require.NoError(t, err)

	assert.Equal(t, 0, doc.StatusCode)
	assert.Equal(t, "2024-03-01T08:00:00", doc.LatestUpdate)
	assert.Equal(t, 30, doc.DataAge)
	require.Len(t, doc.Buses, 3)
	assert.Equal(t, 2, doc.Buses[0].JourneyDirection)
	assert.Equal(t, "118", doc.Buses[0].LineNumber)
	assert.Equal(t, 42, doc.Buses[0].JourneyNumber)
}

func TestJSONDecoder_UpstreamError(t *testing.T) {
	doc, err := JSONDecoder{}.Decode([]byte(`{"StatusCode":1002,"Message":"Key is invalid","ResponseData":null}`))
	require.NoError(t, err)

	assert.Equal(t, 1002, doc.StatusCode)
	assert.Equal(t, "Key is invalid", doc.Message)
	assert.Empty(t, doc.Buses)
}

func TestJSONDecoder_Malformed(t *testing.T) {
	_, err := JSONDecoder{}.Decode([]byte(`{"StatusCode":`))
	assert.Error(t, err)
}
