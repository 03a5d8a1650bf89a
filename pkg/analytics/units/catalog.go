package units

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Group string

const (
	MainLab Group = "mainLab"
	Annex   Group = "annex"
)

var (
	InpatientUnits  = []string{"APU", "GWA", "GWB", "HDU", "ICU", "MAT", "NICU", "THEATRE"}
	OutpatientUnits = []string{"2ND FLOOR", "A&E", "DIALYSIS", "DOCTORS PLAZA", "ENT", "RADIOLOGY", "SELF REQUEST", "WELLNESS", "WELLNESS CENTER"}
	AnnexUnits      = []string{"ANNEX"}
)

// LookupGroup matches a group pseudo-value case-insensitively.
func LookupGroup(raw string) (Group, bool) {
	switch {
	case strings.EqualFold(raw, string(MainLab)):
		return MainLab, true
	case strings.EqualFold(raw, string(Annex)):
		return Annex, true
	}
	return "", false
}

type File struct {
	Groups map[string][]string `yaml:"groups" json:"groups"`
}

// Catalog classifies facility units into disjoint groups. It is not modified after construction.
type Catalog struct {
	members map[Group]map[string]struct{}
}

func DefaultCatalog() *Catalog {
	cat, _ := build(map[Group][]string{
		MainLab: append(append([]string{}, InpatientUnits...), OutpatientUnits...),
		Annex:   AnnexUnits,
	})
	return cat
}

// Load reads a YAML override; an empty path yields the default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultCatalog(), err
	}
	var file File
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, err
	}
	if len(file.Groups) == 0 {
		return nil, fmt.Errorf("unit catalog empty")
	}
	groups := make(map[Group][]string, len(file.Groups))
	for name, members := range file.Groups {
		group, ok := LookupGroup(name)
		if !ok {
			return nil, fmt.Errorf("unknown unit group %q", name)
		}
		groups[group] = append(groups[group], members...)
	}
	return build(groups)
}

func build(groups map[Group][]string) (*Catalog, error) {
	c := &Catalog{members: make(map[Group]map[string]struct{}, len(groups))}
	owner := make(map[string]Group)
	for group, members := range groups {
		set := make(map[string]struct{}, len(members))
		for _, unit := range members {
			key := normalize(unit)
			if key == "" {
				continue
			}
			if prev, dup := owner[key]; dup && prev != group {
				return nil, fmt.Errorf("unit %q listed in both %s and %s", key, prev, group)
			}
			owner[key] = group
			set[key] = struct{}{}
		}
		c.members[group] = set
	}
	return c, nil
}

func normalize(unit string) string {
	return strings.ToUpper(strings.TrimSpace(unit))
}

func (c *Catalog) Contains(group Group, unit string) bool {
	set, ok := c.members[group]
	if !ok {
		return false
	}
	_, ok = set[normalize(unit)]
	return ok
}

// GroupOf returns the group a unit belongs to, if any.
func (c *Catalog) GroupOf(unit string) (Group, bool) {
	key := normalize(unit)
	for group, set := range c.members {
		if _, ok := set[key]; ok {
			return group, true
		}
	}
	return "", false
}

// Units lists a group's members in sorted order.
func (c *Catalog) Units(group Group) []string {
	set := c.members[group]
	out := make([]string, 0, len(set))
	for unit := range set {
		out = append(out, unit)
	}
	sort.Strings(out)
	return out
}

// Snapshot is the serialisable form served to dashboards.
func (c *Catalog) Snapshot() File {
	file := File{Groups: make(map[string][]string, len(c.members))}
	for group := range c.members {
		file.Groups[string(group)] = c.Units(group)
	}
	return file
}
