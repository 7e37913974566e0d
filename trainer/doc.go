// Package trainer drives classifier training: the epoch loop with checkpoint
// and early stopping callbacks for any backend, and the retraining loop that
// improves a hashtron network one hashtron at a time.
package trainer

import "github.com/op/go-logging"

var log = logging.MustGetLogger("trainer")
