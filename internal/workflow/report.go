package workflow

import (
	apperrors "github.com/jwalitptl/clinic-workflow/pkg/errors"
	"github.com/jwalitptl/clinic-workflow/pkg/logger"
	"github.com/jwalitptl/clinic-workflow/pkg/metrics"
)

// Report counts the outcome of op and logs rejections. Store-side conflicts
// and persistence failures are logged by the Executor. err is returned
// unchanged.
func Report(log *logger.Logger, m *metrics.Metrics, op Operation, err error, fields ...interface{}) error {
	m.ObserveTransition(string(op), err)
	if err == nil {
		return nil
	}

	fields = append(fields, "operation", string(op), "code", string(apperrors.CodeOf(err)))
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindState, apperrors.KindNotFound:
		log.Info("Transition rejected", fields...)
	case apperrors.KindInconsistent:
		log.Error(err, "Inconsistent workflow state", fields...)
	}
	return err
}
