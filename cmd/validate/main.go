package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jwebster45206/fairytale-engine/internal/resources"
	"github.com/jwebster45206/fairytale-engine/pkg/profile"
)

func main() {
	v := &ContentValidator{}

	targets := os.Args[1:]
	if len(targets) == 0 {
		fmt.Println("No paths given, validating the bundled resources and tiers...")
		v.validateBundled()
	}
	for _, target := range targets {
		if err := v.validatePath(target); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
	}

	for _, w := range v.warnings {
		fmt.Println("warning:" + w)
	}
	if len(v.errors) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed:\n%s\n", strings.Join(v.errors, "\n"))
		os.Exit(1)
	}

	fmt.Println("Content is valid!")
}

// ContentValidator checks resource directories and tier files before they
// are deployed. Errors stop the server from starting; warnings do not.
type ContentValidator struct {
	errors   []string
	warnings []string
}

func (v *ContentValidator) validatePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		v.validateResourcesDir(path)
		return nil
	}

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		v.validateTiersFile(path)
		return nil
	default:
		return fmt.Errorf("don't know how to validate %s: expected a resources directory or a .yaml tiers file", path)
	}
}

func (v *ContentValidator) validateBundled() {
	res, err := resources.Default()
	if err != nil {
		v.addError(fmt.Sprintf("bundled resources: %v", err))
		return
	}
	v.validateResources("bundled resources", res)
	v.validateTiers("bundled tiers", profile.DefaultTiers())
}

func (v *ContentValidator) validateResourcesDir(dir string) {
	fmt.Printf("Validating resources in %s...\n", dir)

	for _, name := range []string{
		resources.AuthorsFile,
		resources.FairytaleAuthorsFile,
		resources.MoralsFile,
		resources.PlotsFile,
		resources.LocationsFile,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			v.addWarning(fmt.Sprintf("%s not found in %s, the bundled copy will be used", name, dir))
		}
	}

	res, err := resources.LoadDir(dir)
	if err != nil {
		v.addError(fmt.Sprintf("%s: %v", dir, err))
		return
	}
	v.validateResources(dir, res)
}

// validateResources checks list entries against the limits applied to
// values typed by users. Random picks bypass those limits, so an entry
// that is too long is only a warning.
func (v *ContentValidator) validateResources(source string, res *resources.Resources) {
	for _, author := range append(res.Authors(), res.FairytaleAuthors()...) {
		v.checkLength(source, "author", author, profile.AuthorMaxLength)
	}
	for _, moral := range res.Morals() {
		v.checkLength(source, "moral", moral, profile.MoralMaxLength)
	}

	longest := func(list []string) string {
		var best string
		for _, s := range list {
			if utf8.RuneCountInString(s) > utf8.RuneCountInString(best) {
				best = s
			}
		}
		return best
	}
	topic := fmt.Sprintf("%s in %s", longest(res.Plots()), longest(res.Locations()))
	v.checkLength(source, "topic", topic, profile.TopicMaxLength)

	v.checkDuplicates(source, "author", res.Authors())
	v.checkDuplicates(source, "fairytale author", res.FairytaleAuthors())
	v.checkDuplicates(source, "moral", res.Morals())
	v.checkDuplicates(source, "plot", res.Plots())
	v.checkDuplicates(source, "location", res.Locations())
}

func (v *ContentValidator) validateTiersFile(path string) {
	fmt.Printf("Validating tiers in %s...\n", path)

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !isValidFilename(name) {
		v.addError(fmt.Sprintf("tiers filename '%s' should be lowercase snake_case", filepath.Base(path)))
	}

	table, err := profile.LoadTiers(path)
	if err != nil {
		v.addError(fmt.Sprintf("%s: %v", path, err))
		return
	}
	v.validateTiers(path, table)
}

func (v *ContentValidator) validateTiers(source string, table profile.TierTable) {
	for _, tier := range profile.Tiers.Members() {
		settings, ok := table.Settings(tier)
		if !ok {
			v.addError(fmt.Sprintf("%s: tier %s is missing", source, tier))
			continue
		}
		if settings.UsageLimit <= 0 {
			v.addWarning(fmt.Sprintf("%s: tier %s has usage_limit %d, users can never generate a stage", source, tier, settings.UsageLimit))
		}
	}

	def, okDef := table.Settings(profile.TierDefault)
	prem, okPrem := table.Settings(profile.TierPremium)
	if okDef && okPrem && prem.UsageLimit < def.UsageLimit {
		v.addWarning(fmt.Sprintf("%s: premium usage_limit %d is below default %d", source, prem.UsageLimit, def.UsageLimit))
	}
}

func (v *ContentValidator) checkLength(source, field, value string, maxLen int) {
	if n := utf8.RuneCountInString(value); n > maxLen {
		v.addWarning(fmt.Sprintf("%s: %s '%s' has %d characters, more than the %d allowed for /set_%s", source, field, value, n, maxLen, field))
	}
}

func (v *ContentValidator) checkDuplicates(source, field string, values []string) {
	seen := make(map[string]bool, len(values))
	for _, value := range values {
		key := strings.ToLower(value)
		if seen[key] {
			v.addWarning(fmt.Sprintf("%s: duplicate %s '%s'", source, field, value))
		}
		seen[key] = true
	}
}

func (v *ContentValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *ContentValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  - "+msg)
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidFilename(name string) bool {
	return validFilenameRegex.MatchString(name)
}
