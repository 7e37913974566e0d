package trainer

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// ErrNoCheckpoints is returned when a directory holds no checkpoint.
var ErrNoCheckpoints = errors.New("trainer: no checkpoints")

var checkpointLoss = regexp.MustCompile(`_loss(-?[0-9]+(?:\.[0-9]+)?)\.[^.]+$`)

// CheckpointName names the checkpoint of epoch with its loss.
func CheckpointName(epoch int, loss float64, ext string) string {
	return fmt.Sprintf("epoch%02d_loss%.2f.%s", epoch, loss, ext)
}

// LossFromCheckpointName parses the loss encoded in a checkpoint name.
func LossFromCheckpointName(name string) (float64, error) {
	m := checkpointLoss.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, errors.Errorf("trainer: %s is not a checkpoint name", name)
	}
	return strconv.ParseFloat(m[1], 64)
}

// BestCheckpoint returns the checkpoint in dir with the lowest loss. Among
// equal losses the lexically last name, the later epoch, wins.
func BestCheckpoint(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrap(err, "trainer")
	}
	var best string
	var bestLoss = math.Inf(1)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		loss, err := LossFromCheckpointName(e.Name())
		if err != nil {
			continue
		}
		if loss <= bestLoss {
			best, bestLoss = e.Name(), loss
		}
	}
	if best == "" {
		return "", errors.Wrap(ErrNoCheckpoints, dir)
	}
	return filepath.Join(dir, best), nil
}

// Checkpoint saves weights after epochs. With SaveBestOnly only epochs
// improving the monitored loss are saved.
type Checkpoint struct {
	Dir          string
	Ext          string
	SaveBestOnly bool
	Save         func(path string) error

	best float64
	seen bool
}

// OnEpochEnd saves the checkpoint of the epoch.
func (c *Checkpoint) OnEpochEnd(ctx context.Context, logs Logs) (bool, error) {
	var loss = logs.Monitor()
	if c.SaveBestOnly && c.seen && !(loss < c.best) {
		return false, nil
	}
	if !c.seen || loss < c.best {
		c.best, c.seen = loss, true
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return false, errors.Wrap(err, "trainer")
	}
	path := filepath.Join(c.Dir, CheckpointName(logs.Epoch, loss, c.Ext))
	if err := c.Save(path); err != nil {
		return false, errors.Wrapf(err, "trainer: checkpoint %s", path)
	}
	log.Infof("saved checkpoint %s", path)
	return false, nil
}
