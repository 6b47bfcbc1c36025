package models

// Class describes a discipline class offered by the federation
// (e.g. "RH-FL-B", rescue dog area search, level B)
type Class struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Discipline  string `yaml:"discipline" json:"discipline,omitempty"`
}

// ClassCatalogFile is the on-disk shape of one catalog YAML file
type ClassCatalogFile struct {
	Classes          []Class  `yaml:"classes"`
	QualifyingLevels []string `yaml:"qualifying_levels"`
}
