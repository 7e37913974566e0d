package trainer

import (
	"context"

	"github.com/neurlang/lidbox/summary"
)

// Scalars logs the epoch metrics into w.
func Scalars(w *summary.Writer) Callback {
	return CallbackFunc(func(ctx context.Context, logs Logs) (bool, error) {
		var values = map[string]float64{
			"epoch/loss":     logs.Loss,
			"epoch/accuracy": logs.Accuracy,
		}
		if logs.HasVal {
			values["epoch/val_loss"] = logs.ValLoss
			values["epoch/val_accuracy"] = logs.ValAccuracy
		}
		return false, w.Scalars(logs.Epoch, values)
	})
}
