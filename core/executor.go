// Package core has the backlog analyzer and the orchestration of health, check, trend and triage.
package core

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/huangsam/groomer/internal/contract"
	"github.com/sirupsen/logrus"
)

// Executor runs the health, check and history operations against injected
// collaborators. The zero values of Logger, Now and Progress are usable.
type Executor struct {
	Source contract.IssueSource
	Stores contract.StoreManager
	Output contract.OutputWriter
	Logger *logrus.Logger
	Now    func() time.Time

	// Progress receives the spinner while issues are fetched. Nil disables it.
	Progress io.Writer
}

func (e *Executor) clock() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Executor) log() *logrus.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return contract.NewDiscardLogger()
}

// history returns the history store, or nil when persistence is disabled.
func (e *Executor) history() contract.HistoryStore {
	if e.Stores == nil {
		return nil
	}
	return e.Stores.GetHistoryStore()
}

// StartSpinner shows a spinner on w until the returned stop func is called.
func StartSpinner(w io.Writer, suffix string) func() {
	if w == nil {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = suffix
	s.Start()
	return s.Stop
}
