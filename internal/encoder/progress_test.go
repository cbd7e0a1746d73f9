package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProgressLine(t *testing.T) {
	cases := []struct {
		name string
		line string
		want float64
		ok   bool
	}{
		{"out_time_ms", "out_time_ms=12340000", 12.34, true},
		{"out_time_us", "out_time_us=5000000", 5, true},
		{"out_time clock", "out_time=00:01:23.450000", 83.45, true},
		{"stats line", "frame= 300 fps= 29 q=28.0 size=    1024kB time=00:00:12.34 bitrate= 679.7kbits/s speed=1.01x", 12.34, true},
		{"stats line hours", "size=  10240kB time=01:02:03.00 bitrate= 800.0kbits/s", 3723, true},
		{"progress marker", "progress=continue", 0, false},
		{"speed key", "speed=1.5x", 0, false},
		{"noise", "Press [q] to stop, [?] for help", 0, false},
		{"empty", "", 0, false},
		{"negative out_time_ms", "out_time_ms=-1", 0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sample, ok := ParseProgressLine(c.line)
			assert.Equal(t, c.ok, ok)
			if c.ok {
				assert.InDelta(t, c.want, sample.Seconds, 0.001)
			}
		})
	}
}

func TestJobProgress(t *testing.T) {
	assert.Equal(t, 50, jobProgress(1, 2))
	assert.Equal(t, 100, jobProgress(2, 2))
	assert.Equal(t, 33, jobProgress(1, 3))
	assert.Equal(t, 67, jobProgress(2, 3))
	assert.Equal(t, 100, jobProgress(3, 3))
}
