// Package seed defines the default storefront catalog and applies it, along
// with the protected admin account, to a fresh database.
//
// The catalog is a CUE document. Its schema rejects blank names and
// malformed prices before anything touches storage.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"github.com/shopspring/decimal"

	"github.com/roach88/storefront/internal/domain"
)

//go:embed default.cue
var defaultCatalog []byte

//go:embed schema.cue
var catalogSchema []byte

// Catalog is a decoded seed document.
type Catalog struct {
	Categories []CategorySeed `json:"categories"`
	Products   []ProductSeed  `json:"products"`
}

// CategorySeed is one category in a seed document.
type CategorySeed struct {
	Name string `json:"name"`
}

// ProductSeed is one product in a seed document. Category refers to a
// category by name.
type ProductSeed struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Image    string `json:"image"`
	Category string `json:"category"`
}

// Load decodes the embedded default catalog.
func Load() (*Catalog, error) {
	return Parse("default.cue", defaultCatalog)
}

// Parse compiles a single CUE document and decodes it into a Catalog.
// filename is used in error positions only.
func Parse(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()
	return decode(ctx, ctx.CompileBytes(src, cue.Filename(filename)))
}

// LoadDir loads the CUE package in dir as a catalog. Files in the package
// are unified, so a catalog may be split across several files.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, domain.NewValidationError("catalog directory: %v", err)
	}
	if !info.IsDir() {
		return nil, domain.NewValidationError("not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, domain.NewValidationError("no CUE instances in %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, domain.NewValidationError("loading catalog: %s", details(inst.Err))
	}

	ctx := cuecontext.New()
	return decode(ctx, ctx.BuildInstance(inst))
}

// decode unifies v with #Catalog and decodes the result.
func decode(ctx *cue.Context, v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, domain.NewValidationError("building catalog: %s", details(err))
	}
	schema := ctx.CompileBytes(catalogSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile catalog schema: %s", details(err))
	}
	v = schema.LookupPath(cue.ParsePath("#Catalog")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, domain.NewValidationError("invalid catalog: %s", details(err))
	}

	var c Catalog
	if err := v.Decode(&c); err != nil {
		return nil, domain.NewValidationError("decoding catalog: %s", details(err))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks constraints CUE cannot express on its own, such as unique
// category names and resolvable category references. Blank names are
// rejected here as well so a Catalog built in Go gets the same checks.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return domain.NewValidationError("category name must not be blank")
		}
		if seen[cat.Name] {
			return domain.NewValidationError("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
	}
	for _, p := range c.Products {
		if strings.TrimSpace(p.Name) == "" {
			return domain.NewValidationError("product name must not be blank")
		}
		if !seen[p.Category] {
			return domain.NewValidationError("product %q: unknown category %q", p.Name, p.Category)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return domain.NewValidationError("product %q: invalid price %q", p.Name, p.Price)
		}
		if price.IsNegative() {
			return domain.NewValidationError("product %q: price must not be negative", p.Name)
		}
	}
	return nil
}

// details flattens a CUE error list into one line with positions.
func details(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		pos := e.Position()
		format, args := e.Msg()
		if pos.IsValid() {
			msg += fmt.Sprintf("%s:%d:%d: ", pos.Filename(), pos.Line(), pos.Column())
		}
		msg += fmt.Sprintf(format, args...)
	}
	return msg
}
