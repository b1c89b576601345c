package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Department describes one canonical department with its known spellings.
type Department struct {
	Name    string   `mapstructure:"name" json:"name"`
	Head    string   `mapstructure:"head" json:"head,omitempty"`
	Aliases []string `mapstructure:"aliases" json:"aliases,omitempty"`
}

// DepartmentDirectory is the alias and head table consumed by the pipeline.
type DepartmentDirectory struct {
	Departments []Department `mapstructure:"departments" json:"departments"`
}

// DefaultDepartments returns the directory used when no departments file is configured.
func DefaultDepartments() DepartmentDirectory {
	return DepartmentDirectory{Departments: []Department{
		{Name: "Computer Science", Head: "Dr. Alan Turing", Aliases: []string{"cs", "comp sci"}},
		{Name: "Mathematics", Head: "Dr. Emmy Noether", Aliases: []string{"math"}},
		{Name: "Physics", Head: "Dr. Marie Curie"},
	}}
}

// LoadDepartments reads a YAML departments file. An empty path yields the defaults.
//
//	departments:
//	  - name: Computer Science
//	    head: Dr. Alan Turing
//	    aliases: [cs, comp sci]
func LoadDepartments(path string) (DepartmentDirectory, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultDepartments(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return DepartmentDirectory{}, fmt.Errorf("read departments file %s: %w", path, err)
	}

	var dir DepartmentDirectory
	if err := v.Unmarshal(&dir); err != nil {
		return DepartmentDirectory{}, fmt.Errorf("decode departments file %s: %w", path, err)
	}
	for i, dept := range dir.Departments {
		if strings.TrimSpace(dept.Name) == "" {
			return DepartmentDirectory{}, fmt.Errorf("departments file %s: entry %d has no name", path, i+1)
		}
	}
	return dir, nil
}

// Aliases maps every accepted spelling, including the canonical name itself,
// to the canonical department name.
func (d DepartmentDirectory) Aliases() map[string]string {
	aliases := make(map[string]string)
	for _, dept := range d.Departments {
		aliases[dept.Name] = dept.Name
		for _, alias := range dept.Aliases {
			aliases[alias] = dept.Name
		}
	}
	return aliases
}

// Heads maps canonical department names to their head, skipping unknown heads.
func (d DepartmentDirectory) Heads() map[string]string {
	heads := make(map[string]string, len(d.Departments))
	for _, dept := range d.Departments {
		if dept.Head != "" {
			heads[dept.Name] = dept.Head
		}
	}
	return heads
}
