package heartbeat

import "errors"

var (
	// ErrNilSender is returned by NewScheduler when no sender is supplied
	ErrNilSender = errors.New("heartbeat.nil_sender")

	// ErrSendFailed wraps the error of an unsuccessful heartbeat
	ErrSendFailed = errors.New("heartbeat.send_failed")
)
