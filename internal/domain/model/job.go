package model

import "context"

// LoadJob asks a worker to run the four lookups for one viewer's selection.
type LoadJob struct {
	Viewer     string
	PlaceID    string
	Generation uint64

	ctx context.Context
}

// NewLoadJob binds ctx to the job; cancelling it abandons the load.
func NewLoadJob(ctx context.Context, viewer, placeID string, generation uint64) LoadJob {
	return LoadJob{Viewer: viewer, PlaceID: placeID, Generation: generation, ctx: ctx}
}

// Context returns the job context, never nil.
func (j LoadJob) Context() context.Context {
	if j.ctx == nil {
		return context.Background()
	}
	return j.ctx
}
