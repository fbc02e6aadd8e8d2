package checkpoint

// Executor runs background tasks of a strategy.
//
// *ants.Pool satisfies it, so a pool can be shared between strategies. A
// multi-node refresher holds its worker until Stop, so the pool needs one
// free worker per strategy. Create it with ants.WithNonblocking(true) to
// make Submit fail on a full pool instead of blocking the constructor.
type Executor interface {
	Submit(task func()) error
}

// GoExecutor runs every task on a dedicated goroutine.
type GoExecutor struct{}

func (GoExecutor) Submit(task func()) error {
	go task()
	return nil
}
