package schedule

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
	}{
		{"12:00 PM", 12 * 60},
		{"12:00PM", 12 * 60},
		{"12:30 am", 30},
		{"3:30 PM", 15*60 + 30},
		{"7:00 AM", 7 * 60},
		{"15:30", 15*60 + 30},
		{"00:05", 5},
		{"9 pm", 21 * 60},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "25:00", "13:00 PM", "0:00 AM", "7:75", "noon", "1:2:3"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "12:00 AM", Clock(0).String())
	assert.Equal(t, "12:00 PM", MustClock("12:00").String())
	assert.Equal(t, "3:30 PM", MustClock("15:30").String())
	assert.Equal(t, "15:30", MustClock("3:30 PM").HHMM())
	assert.Equal(t, Clock(30), MustClock("11:30 PM").Add(60))
}

func TestClockEncoding(t *testing.T) {
	type wrap struct {
		At Clock `json:"at" yaml:"at"`
	}

	b, err := json.Marshal(wrap{At: MustClock("5:00 PM")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"5:00 PM"}`, string(b))

	var y wrap
	require.NoError(t, yaml.Unmarshal([]byte("at: \"17:15\"\n"), &y))
	assert.Equal(t, MustClock("5:15 PM"), y.At)

	var j wrap
	assert.Error(t, json.Unmarshal([]byte(`{"at":"nope"}`), &j))
}
