package service

import (
	"time"

	"github.com/yndnr/sod-go/internal/core/domain"
)

// Observer receives transaction events. metric.Registry implements it.
type Observer interface {
	InstanceCreated()
	InstanceDestroyed(lifetime time.Duration)
	FrameExchanged(direction string)
	AttemptFinished(result string)
	BackoffWaited(d time.Duration)
	TransactionFinished(verb, outcome string)
	SessionOpened()
	SessionClosed()
}

type nopObserver struct{}

func (nopObserver) InstanceCreated()                   {}
func (nopObserver) InstanceDestroyed(time.Duration)    {}
func (nopObserver) FrameExchanged(string)              {}
func (nopObserver) AttemptFinished(string)             {}
func (nopObserver) BackoffWaited(time.Duration)        {}
func (nopObserver) TransactionFinished(string, string) {}
func (nopObserver) SessionOpened()                     {}
func (nopObserver) SessionClosed()                     {}

// SessionStore keeps open validator sessions between AUTH and TERM.
type SessionStore interface {
	// Put records s and returns the session it replaced, if any.
	Put(s *domain.OpenSession) *domain.OpenSession
	// Take removes and returns the session for username.
	Take(username string) (*domain.OpenSession, bool)
	// Drain removes and returns every session.
	Drain() []*domain.OpenSession
}
