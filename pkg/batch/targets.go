package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/sre-norns/envprobe/pkg/envdetect"
	"github.com/sre-norns/envprobe/pkg/kinds"
	"github.com/sre-norns/wyrd/pkg/manifest"
)

const KindTargets = kinds.Kind("TargetList")

func init() {
	// Ignore double registration error
	_ = kinds.RegisterKind(KindTargets, &TargetList{})
}

// Expectation is what a target must classify as. Empty fields are not checked.
type Expectation struct {
	Environment envdetect.Environment `json:"environment,omitempty" yaml:"environment,omitempty" xml:"environment,omitempty"`
	Method      envdetect.Method      `json:"method,omitempty" yaml:"method,omitempty" xml:"method,omitempty"`
}

func (e *Expectation) Met(r envdetect.Result) bool {
	if e == nil {
		return true
	}

	if e.Environment != "" && e.Environment != r.Environment {
		return false
	}

	return e.Method == "" || e.Method == r.Method
}

type Target struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty" xml:"name,omitempty"`
	URL  string `json:"url" yaml:"url" xml:"url"`

	// Content is page content to scan for organization IDs
	Content string `json:"content,omitempty" yaml:"content,omitempty" xml:"content,omitempty"`
	// ContentFile is read into Content, relative paths are resolved against the target list file
	ContentFile string `json:"contentFile,omitempty" yaml:"contentFile,omitempty" xml:"contentFile,omitempty"`

	Expect *Expectation `json:"expect,omitempty" yaml:"expect,omitempty" xml:"expect,omitempty"`
}

func (t Target) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}

	return t.URL
}

type TargetList struct {
	Targets []Target `json:"targets" yaml:"targets" xml:"targets"`

	baseDir string
}

// ParseTargets reads a plain list of URLs, one per line.
// A `#` at the start of a line or after whitespace starts a comment, so URL fragments survive.
func ParseTargets(r io.Reader) (TargetList, error) {
	var result TargetList
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}

		result.Targets = append(result.Targets, Target{URL: line})
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("reading target list: %w", err)
	}

	return result, nil
}

func stripComment(line string) string {
	for i, c := range line {
		if c == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}

	return line
}

// TargetsFromManifest extracts a target list from a manifest of kind TargetList
func TargetsFromManifest(m kinds.Manifest) (TargetList, error) {
	if m.Kind != KindTargets {
		return TargetList{}, fmt.Errorf("%w: got %q, expected %q", manifest.ErrUnknownKind, m.Kind, KindTargets)
	}

	targets, ok := m.Spec.(*TargetList)
	if !ok || targets == nil {
		return TargetList{}, fmt.Errorf("%w: got %q, expected %q", manifest.ErrUnexpectedSpecType, reflect.TypeOf(m.Spec), reflect.TypeOf(&TargetList{}))
	}

	return *targets, nil
}

// LoadTargets reads targets from a manifest file (.yaml, .yml, .json) or a plain URL list (any other extension)
func LoadTargets(filename string) (TargetList, error) {
	switch filepath.Ext(filename) {
	case ".yaml", ".yml", ".json":
		m, err := kinds.FromFile(filename)
		if err != nil {
			return TargetList{}, err
		}

		result, err := TargetsFromManifest(m)
		if err != nil {
			return result, fmt.Errorf("targets file %q: %w", filename, err)
		}
		result.baseDir = filepath.Dir(filename)
		return result, nil
	}

	if filename == "-" {
		return ParseTargets(os.Stdin)
	}

	f, err := os.Open(filename)
	if err != nil {
		return TargetList{}, fmt.Errorf("failed to open targets file: %w", err)
	}
	defer f.Close()

	return ParseTargets(f)
}

func (l TargetList) resolve(filename string) string {
	if filepath.IsAbs(filename) || l.baseDir == "" {
		return filename
	}

	return filepath.Join(l.baseDir, filename)
}
