package templates

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogFS embed.FS

type yamlCatalog struct {
	Catalog     string                          `yaml:"catalog"`
	Version     int                             `yaml:"version"`
	LLC         map[string]yamlLLCEntry         `yaml:"llc"`
	Corporation map[string]yamlCorporationEntry `yaml:"corporation"`
	Single      map[string]yamlSingleEntry      `yaml:"single"`
}

type yamlLLCEntry struct {
	Title string `yaml:"title"`
}

type yamlCorporationEntry struct {
	Title           string            `yaml:"title"`
	Triples         []yamlTripleBlock `yaml:"triples"`
	ShareholderOnly []int             `yaml:"shareholder_only"`
}

type yamlTripleBlock struct {
	Shareholders []int `yaml:"shareholders"`
	Directors    []int `yaml:"directors"`
	Officers     []int `yaml:"officers"`
}

type yamlSingleEntry struct {
	Title       string `yaml:"title"`
	LLC         string `yaml:"llc"`
	Corporation string `yaml:"corporation"`
}

type triple struct{ s, d, o int }

type corpLibrary struct {
	title           string
	triples         map[triple]bool
	shareholderOnly map[int]bool
}

type singleLibrary struct {
	title       string
	llc         string
	corporation string
}

// Catalog records which templates actually exist in the library.
type Catalog struct {
	Version     int
	llcTitles   map[string]string
	corporation map[string]corpLibrary
	single      map[string]singleLibrary
}

// LoadCatalog reads the catalog at path, or the embedded catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	var (
		data []byte
		err  error
	)
	if p := strings.TrimSpace(path); p != "" {
		data, err = os.ReadFile(p)
	} else {
		data, err = catalogFS.ReadFile("catalog.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read template catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}
	if err := validateCatalog(&raw); err != nil {
		return nil, err
	}

	c := &Catalog{
		Version:     raw.Version,
		llcTitles:   map[string]string{},
		corporation: map[string]corpLibrary{},
		single:      map[string]singleLibrary{},
	}
	for id, e := range raw.LLC {
		c.llcTitles[id] = strings.TrimSpace(e.Title)
	}
	for id, e := range raw.Corporation {
		lib := corpLibrary{
			title:           strings.TrimSpace(e.Title),
			triples:         map[triple]bool{},
			shareholderOnly: map[int]bool{},
		}
		for _, b := range e.Triples {
			for _, s := range b.Shareholders {
				for _, d := range b.Directors {
					for _, o := range b.Officers {
						lib.triples[triple{s, d, o}] = true
					}
				}
			}
		}
		for _, s := range e.ShareholderOnly {
			lib.shareholderOnly[s] = true
		}
		c.corporation[id] = lib
	}
	for id, e := range raw.Single {
		c.single[id] = singleLibrary{
			title:       strings.TrimSpace(e.Title),
			llc:         strings.TrimSpace(e.LLC),
			corporation: strings.TrimSpace(e.Corporation),
		}
	}
	return c, nil
}

func validateCatalog(raw *yamlCatalog) error {
	if strings.TrimSpace(raw.Catalog) != "formation_templates" {
		return fmt.Errorf("unexpected catalog: %q", raw.Catalog)
	}
	if len(raw.LLC)+len(raw.Corporation)+len(raw.Single) == 0 {
		return errors.New("template catalog is empty")
	}
	for id, e := range raw.Corporation {
		if len(e.Triples) == 0 && len(e.ShareholderOnly) == 0 {
			return fmt.Errorf("corporation template %s lists no templates", id)
		}
		for _, b := range e.Triples {
			if len(b.Shareholders) == 0 || len(b.Directors) == 0 || len(b.Officers) == 0 {
				return fmt.Errorf("corporation template %s has an empty triple block", id)
			}
		}
	}
	for id, e := range raw.Single {
		if strings.TrimSpace(e.LLC) == "" && strings.TrimSpace(e.Corporation) == "" {
			return fmt.Errorf("single template %s has no paths", id)
		}
	}
	return nil
}

func (c *Catalog) hasTriple(doc string, s, d, o int) bool {
	lib, ok := c.corporation[doc]
	return ok && lib.triples[triple{s, d, o}]
}

func (c *Catalog) hasShareholderOnly(doc string, s int) bool {
	lib, ok := c.corporation[doc]
	return ok && lib.shareholderOnly[s]
}

func (c *Catalog) title(doc, fallback string) string {
	if t := c.llcTitles[doc]; t != "" {
		return t
	}
	if t := c.corporation[doc].title; t != "" {
		return t
	}
	if t := c.single[doc].title; t != "" {
		return t
	}
	return fallback
}
