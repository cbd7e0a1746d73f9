package encoder

import (
	"regexp"
	"strconv"
	"strings"
)

// ProgressSample is one parsed encoder progress report, as seconds of
// media encoded so far.
type ProgressSample struct {
	Seconds float64
}

var (
	statsTimeRegex = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2})(?:\.(\d+))?`)
	clockTimeRegex = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})(?:\.(\d+))?$`)
)

// ParseProgressLine extracts a progress sample from a single line of
// encoder output. It understands both the key=value form emitted with
// `-progress` (out_time_ms / out_time) and the classic stats line
// (`frame=... time=00:01:23.45 ...`). Returns false for anything else.
func ParseProgressLine(line string) (ProgressSample, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ProgressSample{}, false
	}

	if key, value, ok := strings.Cut(line, "="); ok && !strings.Contains(key, " ") {
		switch key {
		case "out_time_us", "out_time_ms":
			// Both keys carry microseconds; ffmpeg kept the _ms name
			// for compatibility.
			us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil || us < 0 {
				return ProgressSample{}, false
			}
			return ProgressSample{Seconds: float64(us) / 1e6}, true
		case "out_time":
			return parseClockTime(strings.TrimSpace(value))
		}
	}

	if m := statsTimeRegex.FindStringSubmatch(line); m != nil {
		return parseClockParts(m[1], m[2], m[3], m[4])
	}
	return ProgressSample{}, false
}

func parseClockTime(v string) (ProgressSample, bool) {
	m := clockTimeRegex.FindStringSubmatch(v)
	if m == nil {
		return ProgressSample{}, false
	}
	return parseClockParts(m[1], m[2], m[3], m[4])
}

func parseClockParts(hh, mm, ss, frac string) (ProgressSample, bool) {
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	s, _ := strconv.Atoi(ss)
	secs := float64(h*3600 + m*60 + s)
	if frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err == nil {
			secs += f
		}
	}
	return ProgressSample{Seconds: secs}, true
}
