package runlog

import (
	"context"

	"go.uber.org/zap"
)

// Track runs fn and records it under pipeline. fn returns the number of rows
// it produced. Errors from the history itself are logged and never replace
// fn's result. A nil Store runs fn untracked.
func (s *Store) Track(ctx context.Context, pipeline string, fn func(context.Context) (int64, error)) error {
	if s == nil {
		_, err := fn(ctx)
		return err
	}

	log := zap.L().With(zap.String("pipeline", pipeline))
	id, startErr := s.Start(ctx, pipeline)
	if startErr != nil {
		log.Warn("run history unavailable", zap.Error(startErr))
	}

	rows, err := fn(ctx)
	if startErr != nil {
		return err
	}

	// The pipeline's context may already be canceled; the record still lands.
	recCtx := context.WithoutCancel(ctx)
	if err != nil {
		if ferr := s.Fail(recCtx, id, err.Error()); ferr != nil {
			log.Warn("record failed run", zap.String("run_id", id), zap.Error(ferr))
		}
		return err
	}
	if cerr := s.Complete(recCtx, id, rows); cerr != nil {
		log.Warn("record completed run", zap.String("run_id", id), zap.Error(cerr))
	}
	return nil
}
