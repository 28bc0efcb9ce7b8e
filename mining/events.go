// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package mining

// Event is a state-change notification emitted by the Engine. The event
// stream is the engine's sole output; the consumer decides what, if
// anything, to do about each one (the engine never exits the process).
type Event int

const (
	// SystemError means the hashing machinery itself failed. Fatal.
	SystemError Event = iota

	// PermissionError means the environment refused a network operation. Fatal.
	PermissionError

	// ConnectionError is a transport failure talking to the node. Retried.
	ConnectionError

	// AuthenticationError means the node rejected the credentials. Fatal.
	AuthenticationError

	// CommunicationError means the node answered with something the
	// protocol does not recognize. Retried.
	CommunicationError

	// LongPollFailed is a non-idle long-poll failure. Retried after a pause.
	LongPollFailed

	// LongPollEnabled is emitted once when the node advertises long polling.
	LongPollEnabled

	// NewBlockDetected means the long poll reported a chain change.
	NewBlockDetected

	// NewWork is emitted every time fresh work is published to the workers.
	NewWork

	// SolutionAccepted and SolutionRejected report submission verdicts.
	SolutionAccepted
	SolutionRejected

	// Terminated is the final event; after it the event channel is closed.
	Terminated
)

var eventNames = map[Event]string{
	SystemError:         "system error",
	PermissionError:     "permission error",
	ConnectionError:     "connection error",
	AuthenticationError: "authentication error",
	CommunicationError:  "communication error",
	LongPollFailed:      "long polling failed",
	LongPollEnabled:     "long polling enabled",
	NewBlockDetected:    "new block detected",
	NewWork:             "new work",
	SolutionAccepted:    "solution accepted",
	SolutionRejected:    "solution rejected",
	Terminated:          "terminated",
}

func (e Event) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return "unknown event"
}

// Fatal reports whether the engine stops itself after emitting e.
func (e Event) Fatal() bool {
	switch e {
	case SystemError, PermissionError, AuthenticationError:
		return true
	}
	return false
}
