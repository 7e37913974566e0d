package trainer

import "github.com/pkg/errors"

// Resume loads the best checkpoint of dir and returns its path. Without
// checkpoints it returns an error with cause ErrNoCheckpoints.
func Resume(dir string, load func(path string) error) (string, error) {
	path, err := BestCheckpoint(dir)
	if err != nil {
		return "", err
	}
	if err := load(path); err != nil {
		return "", errors.Wrapf(err, "trainer: resume %s", path)
	}
	log.Infof("resumed from %s", path)
	return path, nil
}
