package domain

// RemoteStatus is the job status vocabulary of the remote execution service.
type RemoteStatus string

const (
	RemoteStatusInQueue    RemoteStatus = "IN_QUEUE"
	RemoteStatusInProgress RemoteStatus = "IN_PROGRESS"
	RemoteStatusCompleted  RemoteStatus = "COMPLETED"
	RemoteStatusFailed     RemoteStatus = "FAILED"
	RemoteStatusCancelled  RemoteStatus = "CANCELLED"
	RemoteStatusTimedOut   RemoteStatus = "TIMED_OUT"
)

// MapRemoteStatus translates a remote status into the internal vocabulary.
// Unknown values map to QUEUED, which keeps the execution pollable.
func MapRemoteStatus(s RemoteStatus) ExecutionStatus {
	switch s {
	case RemoteStatusInQueue:
		return ExecutionStatusQueued
	case RemoteStatusInProgress:
		return ExecutionStatusRunning
	case RemoteStatusCompleted:
		return ExecutionStatusCompleted
	case RemoteStatusFailed, RemoteStatusTimedOut:
		return ExecutionStatusFailed
	case RemoteStatusCancelled:
		return ExecutionStatusCancelled
	default:
		return ExecutionStatusQueued
	}
}
