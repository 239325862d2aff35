// Package parse reads exported motion-capture tables into runs.
//
// Expected layout: a header row with a "time" column plus seven columns
// per joint named <joint>_px, _py, _pz (mm) and _qw, _qx, _qy, _qz.
// The input must already be gap-filled: a missing or malformed cell is
// an error, never interpolated here.
package parse

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/motionlab-data/kinematics.report/internal/mocap"
)

// column suffixes in the order they are stored per joint.
var jointSuffixes = []string{"px", "py", "pz", "qw", "qx", "qy", "qz"}

// jointColumns maps a joint name to the header index of each suffix.
type jointColumns map[string]int

// ReadRun parses one recording from r. The sample rate is derived from
// the time column and validated by mocap.NewRun; irregular sampling
// fails the parse rather than producing a misleading run.
func ReadRun(r io.Reader, id string) (*mocap.Run, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	timeCol := -1
	joints := map[string]jointColumns{}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if strings.EqualFold(name, "time") {
			timeCol = i
			continue
		}
		idx := strings.LastIndex(name, "_")
		if idx <= 0 || idx == len(name)-1 {
			return nil, fmt.Errorf("column %d: %q is not <joint>_<field>", i, name)
		}
		joint, suffix := name[:idx], strings.ToLower(name[idx+1:])
		if !validSuffix(suffix) {
			return nil, fmt.Errorf("column %d: unknown field %q in %q", i, suffix, name)
		}
		if joints[joint] == nil {
			joints[joint] = jointColumns{}
		}
		if prev, dup := joints[joint][suffix]; dup {
			return nil, fmt.Errorf("duplicate column %q (indices %d and %d)", name, prev, i)
		}
		joints[joint][suffix] = i
	}
	if timeCol < 0 {
		return nil, fmt.Errorf("no time column in header")
	}
	if len(joints) == 0 {
		return nil, fmt.Errorf("no joint columns in header")
	}
	for joint, cols := range joints {
		if len(cols) != len(jointSuffixes) {
			return nil, fmt.Errorf("joint %q has %d of %d required columns", joint, len(cols), len(jointSuffixes))
		}
	}

	// Deterministic joint order regardless of map iteration.
	names := make([]string, 0, len(joints))
	for name := range joints {
		names = append(names, name)
	}
	sort.Strings(names)

	var times []float64
	series := make(map[string]*mocap.JointSeries, len(names))
	for _, name := range names {
		series[name] = &mocap.JointSeries{Name: name}
	}

	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		t, err := cell(record, timeCol, row, "time")
		if err != nil {
			return nil, err
		}
		times = append(times, t)

		for _, name := range names {
			cols := joints[name]
			var vals [7]float64
			for k, suffix := range jointSuffixes {
				v, err := cell(record, cols[suffix], row, name+"_"+suffix)
				if err != nil {
					return nil, err
				}
				vals[k] = v
			}
			s := series[name]
			s.Positions = append(s.Positions, mocap.Vec3{X: vals[0], Y: vals[1], Z: vals[2]})
			s.Orientations = append(s.Orientations, mocap.Quat{W: vals[3], X: vals[4], Y: vals[5], Z: vals[6]})
		}
	}

	if len(times) < 2 {
		return nil, fmt.Errorf("recording has %d rows, need at least 2", len(times))
	}
	fs := float64(len(times)-1) / (times[len(times)-1] - times[0])

	ordered := make([]mocap.JointSeries, len(names))
	for i, name := range names {
		ordered[i] = *series[name]
	}
	return mocap.NewRun(id, fs, times, ordered)
}

func validSuffix(s string) bool {
	for _, want := range jointSuffixes {
		if s == want {
			return true
		}
	}
	return false
}

func cell(record []string, col, row int, field string) (float64, error) {
	if col >= len(record) {
		return 0, fmt.Errorf("row %d: missing column for %s", row, field)
	}
	raw := strings.TrimSpace(record[col])
	if raw == "" {
		return 0, fmt.Errorf("row %d: empty %s cell (input must be gap-filled)", row, field)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: bad %s value %q: %w", row, field, raw, err)
	}
	return v, nil
}
