package testutil

import (
	"tidy-go/internal/safety"
)

// CannedConfirmer answers every confirmation with a fixed decision and
// records the requests it saw.
type CannedConfirmer struct {
	Answer   bool
	Err      error
	Requests []*safety.ConfirmRequest
}

func NewCannedConfirmer(answer bool) *CannedConfirmer {
	return &CannedConfirmer{Answer: answer}
}

func (c *CannedConfirmer) Confirm(req *safety.ConfirmRequest) (bool, error) {
	c.Requests = append(c.Requests, req)
	if c.Err != nil {
		return false, c.Err
	}
	return c.Answer, nil
}

// StubCheck is a context check with canned warnings.
type StubCheck struct {
	CheckName  string
	IsAdvanced bool
	Warnings   []safety.CheckWarning
	Err        error
	Runs       int
}

func (c *StubCheck) Name() string   { return c.CheckName }
func (c *StubCheck) Advanced() bool { return c.IsAdvanced }

func (c *StubCheck) Run(opType safety.OperationType, targets []string) ([]safety.CheckWarning, error) {
	c.Runs++
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Warnings, nil
}

// Compile-time checks
var _ safety.Confirmer = (*CannedConfirmer)(nil)
var _ safety.ContextCheck = (*StubCheck)(nil)
