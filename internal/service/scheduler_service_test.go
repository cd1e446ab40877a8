package service

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("07:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 7 * * *", spec)

	spec, err = buildDailySpec(" 23:05 ")
	require.NoError(t, err)
	assert.Equal(t, "0 5 23 * * *", spec)

	for _, bad := range []string{"", "7", "24:00", "12:60", "ab:cd", "1:2:3"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerService_Validation(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())

	_, err := s.ScheduleInterval(0, func() {})
	assert.Error(t, err)

	_, err = s.ScheduleDaily("noon", func() {})
	assert.Error(t, err)

	_, err = s.ScheduleDaily("12:00", func() {})
	assert.NoError(t, err)
}

func TestSchedulerService_RunsIntervalJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())

	fired := make(chan struct{}, 1)
	id, err := s.ScheduleInterval(time.Second, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()
	assert.False(t, s.Next(id).IsZero())

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("interval job did not run")
	}
}

func TestSchedulerService_RecoversFromPanics(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())

	fired := make(chan struct{}, 2)
	_, err := s.ScheduleInterval(time.Second, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
		panic("boom")
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(5 * time.Second):
			t.Fatal("job stopped running after a panic")
		}
	}
}

func TestSchedulerService_KeepsRunningAfterOnePanic(t *testing.T) {
	s := NewSchedulerService(time.UTC, zerolog.Nop())

	var runs atomic.Int32
	ran := make(chan int32, 8)
	_, err := s.ScheduleInterval(time.Second, func() {
		n := runs.Add(1)
		select {
		case ran <- n:
		default:
		}
		if n == 1 {
			panic("first run fails")
		}
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	deadline := time.After(6 * time.Second)
	for {
		select {
		case n := <-ran:
			if n >= 3 {
				return
			}
		case <-deadline:
			t.Fatalf("job ran %d times, want at least 3", runs.Load())
		}
	}
}
