package install

import (
	"fmt"
	"strings"

	"github.com/blang/semver"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/internal/hashutil"
)

// PackageMeta describes one package whose metadata record the reconfigure
// step installs.
type PackageMeta struct {
	Name     string
	Version  string
	Summary  string
	Homepage string
	Requires []string
}

// Validate checks that the package can be rendered into a metadata record
func (p PackageMeta) Validate() error {
	if p.Name == "" {
		return errors.New(errors.ErrMetaInvalid, "package name cannot be empty")
	}
	if strings.ContainsAny(p.Name, "/\\") {
		return errors.Newf(errors.ErrMetaInvalid, "package name %q cannot contain path separators", p.Name)
	}
	if _, err := semver.Parse(p.Version); err != nil {
		return errors.Wrapf(err, errors.ErrMetaInvalid,
			"package %s has invalid version %q", p.Name, p.Version)
	}
	return nil
}

// ParseSpec parses a name@version package spec into a PackageMeta. The
// result is syntactically split only; Validate still applies.
func ParseSpec(spec string) (PackageMeta, error) {
	name, version, found := strings.Cut(spec, "@")
	if !found || name == "" || version == "" {
		return PackageMeta{}, errors.Newf(errors.ErrInvalidInput,
			"package spec %q must have the form name@version", spec)
	}
	return PackageMeta{Name: name, Version: version}, nil
}

// ParseSpecs parses a list of name@version specs
func ParseSpecs(specs []string) ([]PackageMeta, error) {
	pkgs := make([]PackageMeta, 0, len(specs))
	for _, spec := range specs {
		pkg, err := ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

// RecordDirName returns the dist-info directory name for the package
func (p PackageMeta) RecordDirName() string {
	return fmt.Sprintf("%s-%s.dist-info", p.Name, p.Version)
}

// metadataFile renders the METADATA file body
func (p PackageMeta) metadataFile() string {
	var b strings.Builder
	b.WriteString("Metadata-Version: 2.1\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Version: %s\n", p.Version)
	if p.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", p.Summary)
	}
	if p.Homepage != "" {
		fmt.Fprintf(&b, "Home-page: %s\n", p.Homepage)
	}
	for _, req := range p.Requires {
		fmt.Fprintf(&b, "Requires-Dist: %s\n", req)
	}
	return b.String()
}

type recordEntry struct {
	name    string
	content []byte
}

// renderRecord renders the RECORD file body, listing every file of the
// record with its digest and size. RECORD itself is listed last with
// empty fields, since the file cannot contain its own hash.
func renderRecord(dir string, files []recordEntry) string {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "%s/%s,%s,%d\n", dir, f.name, hashutil.Checksum(f.content), len(f.content))
	}
	fmt.Fprintf(&b, "%s/%s,,\n", dir, recordName)
	return b.String()
}
