// Package tech models the technology metadata that step actions consume:
// metal stackups, dont-use cell lists and special (non-logic) cells.
package tech

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Provider supplies technology metadata to step actions. The engine
// never inspects it beyond passing it through the run context.
type Provider interface {
	Name() string
	DontUseList() []string
	Stackup(name string) (*Stackup, bool)
	SpecialCells(cellType CellType) []SpecialCell
}

// CellType classifies a special cell.
type CellType string

const (
	TieCell   CellType = "tiecell"
	EndCap    CellType = "endcap"
	IOFiller  CellType = "iofiller"
	StdFiller CellType = "stdfiller"
)

// ParseCellType validates a cell type string from a technology file.
func ParseCellType(s string) (CellType, error) {
	switch CellType(s) {
	case TieCell, EndCap, IOFiller, StdFiller:
		return CellType(s), nil
	default:
		return "", errors.Errorf("invalid cell type '%s'", s)
	}
}

// SpecialCell is a technology cell used for non-logic purposes
// (tie cells, endcaps, fillers).
type SpecialCell struct {
	CellType CellType `yaml:"cell_type"`
	Name     string   `yaml:"name"`
	Size     *float64 `yaml:"size,omitempty"`
}

// RoutingDirection is the preferred routing direction of a metal layer.
type RoutingDirection string

const (
	Horizontal RoutingDirection = "horizontal"
	Vertical   RoutingDirection = "vertical"
)

// Metal describes one layer of a stackup.
type Metal struct {
	Name      string           `yaml:"name"`
	Index     int              `yaml:"index"`
	Direction RoutingDirection `yaml:"direction"`
	Pitch     float64          `yaml:"pitch,omitempty"`
}

// Stackup is an ordered list of metal layers.
type Stackup struct {
	Name   string  `yaml:"name"`
	Metals []Metal `yaml:"metals"`
}

// Metal returns the layer with the given name.
func (s *Stackup) Metal(name string) (*Metal, bool) {
	for i := range s.Metals {
		if s.Metals[i].Name == name {
			return &s.Metals[i], true
		}
	}
	return nil, false
}

// Technology is the YAML-loaded technology description.
type Technology struct {
	NameField string        `yaml:"name"`
	Stackups  []Stackup     `yaml:"stackups"`
	DontUse   []string      `yaml:"dont_use_list"`
	Special   []SpecialCell `yaml:"special_cells"`
}

// Load reads a technology description from a YAML file.
func Load(filePath string) (*Technology, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read technology file '%s'", filePath)
	}
	var t Technology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal technology from '%s'", filePath)
	}
	if t.NameField == "" {
		return nil, errors.Errorf("technology file '%s' is missing a name", filePath)
	}
	for _, c := range t.Special {
		if _, err := ParseCellType(string(c.CellType)); err != nil {
			return nil, errors.Wrapf(err, "technology '%s'", t.NameField)
		}
	}
	return &t, nil
}

// Name returns the technology name.
func (t *Technology) Name() string {
	return t.NameField
}

// DontUseList returns the cells the technology forbids, as declared.
func (t *Technology) DontUseList() []string {
	out := make([]string, len(t.DontUse))
	copy(out, t.DontUse)
	return out
}

// Stackup returns the stackup with the given name.
func (t *Technology) Stackup(name string) (*Stackup, bool) {
	for i := range t.Stackups {
		if t.Stackups[i].Name == name {
			return &t.Stackups[i], true
		}
	}
	return nil, false
}

// SpecialCells returns all special cells of the given type.
func (t *Technology) SpecialCells(cellType CellType) []SpecialCell {
	var out []SpecialCell
	for _, c := range t.Special {
		if c.CellType == cellType {
			out = append(out, c)
		}
	}
	return out
}

// DontUseMode selects how a tool combines its manually configured
// dont-use list with the technology's own list.
type DontUseMode string

const (
	DontUseAuto   DontUseMode = "auto"   // technology list only
	DontUseManual DontUseMode = "manual" // configured list only
	DontUseAppend DontUseMode = "append" // technology list plus configured list
)

// ResolveDontUseList combines the technology and manually configured
// dont-use lists according to the given mode.
func ResolveDontUseList(mode DontUseMode, manual, techList []string) ([]string, error) {
	switch mode {
	case DontUseAuto:
		return append([]string{}, techList...), nil
	case DontUseManual:
		return append([]string{}, manual...), nil
	case DontUseAppend:
		out := append([]string{}, techList...)
		return append(out, manual...), nil
	default:
		return nil, errors.Errorf("invalid dont-use mode '%s'", mode)
	}
}
