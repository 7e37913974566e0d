package lid

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/pkg/errors"
)

// ReadManifest joins the id2path and id2label files of dir into utterances
// sorted by id. Every path must have a label.
func ReadManifest(dir string) ([]Utterance, error) {
	paths, err := readPairs(filepath.Join(dir, "id2path"))
	if err != nil {
		return nil, err
	}
	labels, err := readPairs(filepath.Join(dir, "id2label"))
	if err != nil {
		return nil, err
	}
	var out = make([]Utterance, 0, len(paths))
	for id, path := range paths {
		label, ok := labels[id]
		if !ok {
			return nil, errors.Errorf("lid: utterance %s in %s has no label", id, dir)
		}
		out = append(out, Utterance{ID: id, Path: path, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	log.Debugf("read %d utterances from %s", len(out), dir)
	return out, nil
}

// readPairs reads "key value" lines. Blank lines are skipped.
func readPairs(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "lid")
	}
	defer f.Close()

	var out = make(map[string]string)
	var sc = bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, errors.Errorf("lid: %s:%d: expected 2 fields, got %d", path, line, len(fields))
		}
		if _, dup := out[fields[0]]; dup {
			return nil, errors.Errorf("lid: %s:%d: duplicate id %s", path, line, fields[0])
		}
		out[fields[0]] = fields[1]
	}
	return out, errors.Wrap(sc.Err(), path)
}

// WriteManifest writes utterances into the id2path and id2label files of dir.
func WriteManifest(dir string, utts []Utterance) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "lid")
	}
	var paths, labels strings.Builder
	for _, u := range utts {
		paths.WriteString(u.ID + " " + u.Path + "\n")
		labels.WriteString(u.ID + " " + u.Label + "\n")
	}
	if err := os.WriteFile(filepath.Join(dir, "id2path"), []byte(paths.String()), 0o644); err != nil {
		return errors.Wrap(err, "lid")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(dir, "id2label"), []byte(labels.String()), 0o644), "lid")
}

// LoadAudioFilePaths reads one path or glob pattern per line. Blank lines and
// lines starting with # are skipped. Patterns expand in sorted order.
func LoadAudioFilePaths(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrap(err, "lid")
	}
	defer f.Close()

	var out []string
	var sc = bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		matches, err := doublestar.Glob(line)
		if err != nil {
			return nil, errors.Wrapf(err, "lid: pattern %q", line)
		}
		if len(matches) == 0 {
			// unmatched lines are kept as literal paths
			out = append(out, line)
			continue
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, errors.Wrap(sc.Err(), file)
}
