package notify

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerFiresOnce(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	s.Schedule("n1", time.Now().Add(10*time.Millisecond), func() {
		atomic.AddInt32(&fired, 1)
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, s.Pending("n1"))
}

func TestSchedulerIsIdempotentPerID(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	fireAt := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		s.Schedule("n1", fireAt, func() {
			atomic.AddInt32(&fired, 1)
		})
	}
	assert.Equal(t, 1, s.Len())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)

	// No second timer may exist; give a stray one time to fire.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestSchedulerCancelPreventsFire(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	s.Schedule("n1", time.Now().Add(20*time.Millisecond), func() {
		atomic.AddInt32(&fired, 1)
	})
	s.Cancel("n1")

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fired))
	assert.False(t, s.Pending("n1"))
}

func TestSchedulerPastDeadlineFiresImmediately(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	s.Schedule("n1", time.Now().Add(-time.Hour), func() {
		atomic.AddInt32(&fired, 1)
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerRearmAfterFire(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	var fired int32
	s.Schedule("n1", time.Now(), func() { atomic.AddInt32(&fired, 1) })
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 1
	}, time.Second, 5*time.Millisecond)

	// Once a timer has fired the id is free again.
	s.Schedule("n1", time.Now(), func() { atomic.AddInt32(&fired, 1) })
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fired) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerStopRejectsFurtherWork(t *testing.T) {
	s := NewScheduler()

	var fired int32
	s.Schedule("n1", time.Now().Add(20*time.Millisecond), func() {
		atomic.AddInt32(&fired, 1)
	})
	s.Stop()
	s.Schedule("n2", time.Now(), func() {
		atomic.AddInt32(&fired, 1)
	})

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fired))
	assert.Zero(t, s.Len())
}
