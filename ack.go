package byplay

// Ack is returned from one execution cycle (ExecuteOnce). It takes one of
// three shapes:
//   - Empty (Job == nil): no candidate row was found in any polled queue.
//   - Job set, Err nil: the row was executed successfully and is now DONE.
//   - Job set, Err set: the row's callable failed and it is now FAILED.
type Ack struct {
	Job *Job
	Err error
}

// Empty reports whether the cycle found no candidate row to reserve.
func (a Ack) Empty() bool {
	return a.Job == nil
}

// Failed reports whether the cycle executed a job that returned an error.
func (a Ack) Failed() bool {
	return a.Job != nil && a.Err != nil
}
