package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airqtools/airq/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	m := domain.Measurement{
		MeasurementID: "m_1a2b3c4d5e6f",
		LocationID:    749,
		SensorID:      3917,
		Parameter:     "pm25",
		Value:         4.9,
		Date:          domain.UTCDate{UTC: "2016-03-06T19:00:00Z"},
	}

	msg, err := serializeToMessage(m)
	require.NoError(t, err)

	assert.Equal(t, []byte("m_1a2b3c4d5e6f"), msg.Key)
	assert.Contains(t, string(msg.Value), `"measurementId":"m_1a2b3c4d5e6f"`)
	assert.Contains(t, string(msg.Value), `"date":{"utc":"2016-03-06T19:00:00Z"}`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "parameter", msg.Headers[0].Key)
	assert.Equal(t, []byte("pm25"), msg.Headers[0].Value)
	assert.Equal(t, "utc", msg.Headers[1].Key)
	assert.Equal(t, []byte("2016-03-06T19:00:00Z"), msg.Headers[1].Value)
}
