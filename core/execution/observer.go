package execution

import (
	"github.com/rs/zerolog"
	"go.dedis.ch/cellkit/core/types"
)

// Observer is notified synchronously of every debug message printed by a
// script during a verification.
type Observer interface {
	OnDebug(scriptHash types.Hash, msg string)
}

// ObserverFunc is an adapter to use a function as an observer.
type ObserverFunc func(scriptHash types.Hash, msg string)

// OnDebug implements execution.Observer.
func (fn ObserverFunc) OnDebug(scriptHash types.Hash, msg string) {
	fn(scriptHash, msg)
}

// NopObserver is an observer that ignores the messages.
type NopObserver struct{}

// OnDebug implements execution.Observer.
func (NopObserver) OnDebug(types.Hash, string) {}

// DebugMessage is a message captured by a buffer observer.
type DebugMessage struct {
	ScriptHash types.Hash
	Message    string
}

// BufferObserver is an observer that captures the messages so that they can be
// inspected after the verification.
//
// - implements execution.Observer
type BufferObserver struct {
	messages []DebugMessage
}

// OnDebug implements execution.Observer. It appends the message to the buffer.
func (o *BufferObserver) OnDebug(scriptHash types.Hash, msg string) {
	o.messages = append(o.messages, DebugMessage{ScriptHash: scriptHash, Message: msg})
}

// Messages returns the messages captured so far.
func (o *BufferObserver) Messages() []DebugMessage {
	return append([]DebugMessage(nil), o.messages...)
}

// Reset drops the captured messages.
func (o *BufferObserver) Reset() {
	o.messages = nil
}

// LogObserver is an observer that logs the messages at the debug level.
//
// - implements execution.Observer
type LogObserver struct {
	logger zerolog.Logger
}

// NewLogObserver returns an observer writing to the logger.
func NewLogObserver(logger zerolog.Logger) LogObserver {
	return LogObserver{logger: logger}
}

// OnDebug implements execution.Observer.
func (o LogObserver) OnDebug(scriptHash types.Hash, msg string) {
	o.logger.Debug().Stringer("script", scriptHash).Msg(msg)
}
