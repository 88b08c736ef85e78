package resources

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
)

const (
	AuthorsFile          = "random_authors.txt"
	FairytaleAuthorsFile = "random_fairytale_authors.txt"
	MoralsFile           = "random_morals.txt"
	PlotsFile            = "random_plots.txt"
	LocationsFile        = "random_locations.txt"
)

//go:embed data/*.txt
var embedded embed.FS

// Resources holds the static lists used for randomized story parameters.
// The lists are read once and never modified.
type Resources struct {
	authors          []string
	fairytaleAuthors []string
	morals           []string
	plots            []string
	locations        []string

	mu  sync.Mutex
	rng *rand.Rand
}

// Default loads the lists bundled with the binary.
func Default() (*Resources, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded resources: %w", err)
	}
	return Load(sub)
}

// LoadDir loads the lists from dir, falling back to the bundled copy for any
// file the directory does not provide.
func LoadDir(dir string) (*Resources, error) {
	if dir == "" {
		return Default()
	}
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded resources: %w", err)
	}
	return Load(overlayFS{top: os.DirFS(dir), base: sub})
}

// Load reads every list from fsys. Each file holds one entry per line; blank
// lines are skipped and an empty list is an error.
func Load(fsys fs.FS) (*Resources, error) {
	r := &Resources{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	targets := []struct {
		name string
		dst  *[]string
	}{
		{AuthorsFile, &r.authors},
		{FairytaleAuthorsFile, &r.fairytaleAuthors},
		{MoralsFile, &r.morals},
		{PlotsFile, &r.plots},
		{LocationsFile, &r.locations},
	}
	for _, target := range targets {
		lines, err := readLines(fsys, target.name)
		if err != nil {
			return nil, err
		}
		*target.dst = lines
	}
	return r, nil
}

func readLines(fsys fs.FS, name string) ([]string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource %s: %w", name, err)
	}
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("resource %s is empty", name)
	}
	return lines, nil
}

// WithSeed replaces the random source, for reproducible picks.
func (r *Resources) WithSeed(seed1, seed2 uint64) *Resources {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng = rand.New(rand.NewPCG(seed1, seed2))
	return r
}

func (r *Resources) pick(list []string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return list[r.rng.IntN(len(list))]
}

// RandomMoral picks a moral.
func (r *Resources) RandomMoral() string {
	return r.pick(r.morals)
}

// RandomTopic combines a random plot with a random location.
func (r *Resources) RandomTopic() string {
	plot := r.pick(r.plots)
	location := r.pick(r.locations)
	return fmt.Sprintf("%s in %s", plot, location)
}

// RandomAuthor picks an author style. Unless fairytaleOnly is set, general
// authors and fairytale authors are drawn from together.
func (r *Resources) RandomAuthor(fairytaleOnly bool) string {
	if fairytaleOnly {
		return r.pick(r.fairytaleAuthors)
	}
	all := make([]string, 0, len(r.authors)+len(r.fairytaleAuthors))
	all = append(all, r.authors...)
	all = append(all, r.fairytaleAuthors...)
	return r.pick(all)
}

// Authors returns a copy of the general author list.
func (r *Resources) Authors() []string {
	return append([]string(nil), r.authors...)
}

// FairytaleAuthors returns a copy of the fairytale author list.
func (r *Resources) FairytaleAuthors() []string {
	return append([]string(nil), r.fairytaleAuthors...)
}

// Morals returns a copy of the moral list.
func (r *Resources) Morals() []string {
	return append([]string(nil), r.morals...)
}

// Plots returns a copy of the plot list.
func (r *Resources) Plots() []string {
	return append([]string(nil), r.plots...)
}

// Locations returns a copy of the location list.
func (r *Resources) Locations() []string {
	return append([]string(nil), r.locations...)
}

// overlayFS serves files from top and falls back to base when top lacks them.
type overlayFS struct {
	top  fs.FS
	base fs.FS
}

func (o overlayFS) Open(name string) (fs.File, error) {
	f, err := o.top.Open(name)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return o.base.Open(name)
}
