package workload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ed-sim/ed-sim/sim"
)

// ArrivalRecord is one recorded arrival.
type ArrivalRecord struct {
	ID        string
	Tick      int64
	Severity  sim.Severity
	Specialty string // empty or "none" for no specialty
}

// arrivalColumns is the expected CSV header.
var arrivalColumns = []string{"tick", "severity", "specialty", "id"}

// LoadArrivals reads recorded arrivals from a CSV file with the columns
// tick,severity,specialty,id. The id column may be empty; ids are then
// derived from the row number.
func LoadArrivals(path string) ([]ArrivalRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening arrivals: %w", err)
	}
	defer func() { _ = file.Close() }()
	return ReadArrivals(file)
}

// ReadArrivals parses recorded arrivals from CSV. Records are returned sorted
// by tick; rows sharing a tick keep their file order.
func ReadArrivals(r io.Reader) ([]ArrivalRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var records []ArrivalRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		rec, err := parseArrivalRecord(row, line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Tick < records[j].Tick })
	return records, nil
}

func parseArrivalRecord(row []string, line int) (ArrivalRecord, error) {
	if len(row) < len(arrivalColumns)-1 {
		return ArrivalRecord{}, fmt.Errorf("line %d: %d columns, expected at least %d", line, len(row), len(arrivalColumns)-1)
	}
	tick, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil || tick < 0 {
		return ArrivalRecord{}, fmt.Errorf("line %d: invalid tick %q", line, row[0])
	}
	severity, err := sim.ParseSeverity(row[1])
	if err != nil {
		return ArrivalRecord{}, fmt.Errorf("line %d: %w", line, err)
	}
	specialty := strings.TrimSpace(row[2])
	if specialty != "" && specialty != sim.NoSpecialty && !sim.IsValidSpecialty(specialty) {
		return ArrivalRecord{}, fmt.Errorf("line %d: unknown specialty %q", line, specialty)
	}
	id := ""
	if len(row) > 3 {
		id = strings.TrimSpace(row[3])
	}
	if id == "" {
		id = fmt.Sprintf("patient_%d", line-1)
	}
	return ArrivalRecord{ID: id, Tick: tick, Severity: severity, Specialty: specialty}, nil
}

// Replay feeds recorded arrivals to the simulation.
type Replay struct {
	records []ArrivalRecord
	pos     int
}

// NewReplay creates a replay source. records must be sorted by tick.
func NewReplay(records []ArrivalRecord) *Replay {
	return &Replay{records: records}
}

// ArrivalsAt returns every not-yet-replayed record with Tick <= tick.
// Records scheduled for skipped ticks arrive late, stamped with tick.
func (r *Replay) ArrivalsAt(tick int64, at time.Time) []*sim.Patient {
	var out []*sim.Patient
	for r.pos < len(r.records) && r.records[r.pos].Tick <= tick {
		rec := r.records[r.pos]
		p := sim.NewPatient(rec.ID, rec.Severity, tick, at)
		if rec.Specialty != "" && rec.Specialty != sim.NoSpecialty {
			p.WithSpecialty(sim.Specialty(rec.Specialty))
		}
		out = append(out, p)
		r.pos++
	}
	return out
}

// Remaining returns the number of records not yet replayed.
func (r *Replay) Remaining() int {
	return len(r.records) - r.pos
}
