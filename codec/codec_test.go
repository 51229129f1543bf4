package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecdb/vecdb/record"
)

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}

func TestRecordRoundTrip(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			in := record.NewWithID("r-1", []float32{0.25, -1, 3}).
				WithMetadata(map[string]string{"source": "unit"}).
				WithCollection("docs")

			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out record.Record
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, *in, out)
		})
	}
}

func TestCodecsAgree(t *testing.T) {
	in := record.NewWithID("r-2", []float32{1, 2}).WithCollection("a")

	std, err := JSON{}.Marshal(in)
	require.NoError(t, err)

	var out record.Record
	require.NoError(t, GoJSON{}.Unmarshal(std, &out))
	assert.Equal(t, *in, out)
}
