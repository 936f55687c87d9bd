package catalog

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	_ "embed"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

// seedJSON is the default catalog shipped with the binary: the nine TechGear
// products. Deployments can override it with an external catalog file.
//
//go:embed seed.json
var seedJSON []byte

// Default returns a Store seeded with the embedded catalog.
func Default() (*Store, error) {
	products, err := Parse(strings.NewReader(string(seedJSON)))
	if err != nil {
		return nil, errors.Wrap(err, "embedded seed")
	}
	return NewStore(products)
}

// LoadFile reads a catalog file. Files ending in .gz are transparently
// gunzipped.
func LoadFile(path string) ([]Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "gunzip %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	products, err := Parse(r)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return products, nil
}

// Parse decodes a JSON array of products. Validation happens when the list
// is installed into a Store.
func Parse(r io.Reader) ([]Product, error) {
	var products []Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}
	return products, nil
}
