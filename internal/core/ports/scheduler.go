package ports

// SchedulerService arms one-shot tasks at absolute unix timestamps.
type SchedulerService interface {
	Start()
	Stop()

	// ScheduleTaskOnce runs task once at the given unix timestamp. It fails
	// if the timestamp is already in the past.
	ScheduleTaskOnce(at int64, task func()) error
}
