package selection

import "github.com/okian/brandboard/internal/domain/model"

// Outcome is the result of one lookup: either rows or the cause of failure.
// The zero Outcome is pending.
type Outcome[T any] struct {
	value T
	err   error
	done  bool
}

// Ok wraps a successful lookup. An empty value is still Ok.
func Ok[T any](v T) Outcome[T] { return Outcome[T]{value: v, done: true} }

// Err wraps a failed lookup.
func Err[T any](err error) Outcome[T] { return Outcome[T]{err: err, done: true} }

// Get returns the value or the failure cause.
func (o Outcome[T]) Get() (T, error) { return o.value, o.err }

// OK reports whether the lookup finished without error.
func (o Outcome[T]) OK() bool { return o.done && o.err == nil }

// Cause returns the failure, nil when Ok or pending.
func (o Outcome[T]) Cause() error { return o.err }

// Done reports whether the lookup finished either way.
func (o Outcome[T]) Done() bool { return o.done }

// Result holds the four lookups run for a place selection.
type Result struct {
	Likes     Outcome[[]model.Engagement]
	Dislikes  Outcome[[]model.Engagement]
	Likers    Outcome[[]model.UserAttributes]
	Dislikers Outcome[[]model.UserAttributes]
}

// FailedResult marks all four lookups as failed with err.
func FailedResult(err error) Result {
	return Result{
		Likes:     Err[[]model.Engagement](err),
		Dislikes:  Err[[]model.Engagement](err),
		Likers:    Err[[]model.UserAttributes](err),
		Dislikers: Err[[]model.UserAttributes](err),
	}
}

// State classifies a finished result.
func (r Result) State() State {
	ok := 0
	for _, b := range []bool{r.Likes.OK(), r.Dislikes.OK(), r.Likers.OK(), r.Dislikers.OK()} {
		if b {
			ok++
		}
	}
	switch ok {
	case 4:
		return Ready
	case 0:
		return Failed
	default:
		return Partial
	}
}
