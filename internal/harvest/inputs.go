package harvest

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// Inputs is the enumerable search space: every location crossed with every
// employee-range descriptor and every industry.
type Inputs struct {
	// Locations in source order.
	Locations []string
	// EmployeeRanges holds the descriptor strings; the production space
	// uses a single combined descriptor.
	EmployeeRanges []string
	// Industries maps industry name to the vendor's industry id.
	Industries map[string]string
}

// Validate reports whether the space is enumerable at all.
func (in Inputs) Validate() error {
	if len(in.Locations) == 0 {
		return errors.New("no locations loaded")
	}
	if len(in.EmployeeRanges) == 0 {
		return errors.New("no employee ranges configured")
	}
	if len(in.Industries) == 0 {
		return errors.New("no industries loaded")
	}
	return nil
}

// TotalPotential is |locations| x |employee_ranges| x |industries|.
func (in Inputs) TotalPotential() int64 {
	return int64(len(in.Locations)) * int64(len(in.EmployeeRanges)) * int64(len(in.Industries))
}

// IndustryNames returns the industry names in sorted order so enumeration
// and fingerprinting are deterministic across runs.
func (in Inputs) IndustryNames() []string {
	names := make([]string, 0, len(in.Industries))
	for name := range in.Industries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fingerprint hashes the full input sets. Two runs with identical inputs
// produce identical fingerprints; any change to a location, range, or
// industry changes it. This is the generation-complete marker key, replacing
// a raw document-count comparison.
func (in Inputs) Fingerprint() string {
	h := sha256.New()
	writeSection := func(label string, values []string) {
		h.Write([]byte(label))
		for _, v := range values {
			h.Write([]byte{0})
			h.Write([]byte(v))
		}
		h.Write([]byte{0xff})
	}
	writeSection("locations", in.Locations)
	writeSection("ranges", in.EmployeeRanges)
	pairs := make([]string, 0, len(in.Industries)*2)
	for _, name := range in.IndustryNames() {
		pairs = append(pairs, name, in.Industries[name])
	}
	writeSection("industries", pairs)
	return hex.EncodeToString(h.Sum(nil))
}

// LoadLocations reads the locations CSV. The file must carry a "location"
// header column; rows are returned in file order.
func LoadLocations(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open locations file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read locations header: %w", err)
	}
	col := -1
	for i, name := range header {
		if name == "location" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, errors.New(`locations file has no "location" column`)
	}

	var locations []string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read locations row: %w", err)
		}
		if col < len(row) && row[col] != "" {
			locations = append(locations, row[col])
		}
	}
	return locations, nil
}

// LoadIndustries reads the industry name -> vendor id JSON map.
func LoadIndustries(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open industries file: %w", err)
	}
	var industries map[string]string
	if err := json.Unmarshal(data, &industries); err != nil {
		return nil, fmt.Errorf("parse industries file: %w", err)
	}
	return industries, nil
}
