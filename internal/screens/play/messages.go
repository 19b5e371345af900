package play

import (
	sess "github.com/abhisek/habla/internal/session"
)

// startedMsg is sent when the runner has loaded the patient and queue.
type startedMsg struct {
	Err error
}

// answeredMsg is sent when a submission has been scored and recorded.
type answeredMsg struct {
	Result sess.Result
	Err    error
}

// promptAudioMsg is sent when the spoken prompt has been synthesized.
type promptAudioMsg struct {
	Bytes int
	Err   error
}

// finishMsg moves to the summary screen.
type finishMsg struct{}
