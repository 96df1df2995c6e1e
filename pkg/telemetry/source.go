package telemetry

import "sync"

// Source provides sensor readings.
type Source interface {
	Speed() float32
	ADC() uint16
}

// CounterSource is a Source producing incrementing readings,
// used when no real sensor is attached.
type CounterSource struct {
	speed float32
	adc   uint16
	lock  sync.Mutex
}

// NewCounterSource creates a CounterSource starting from 1.
func NewCounterSource() *CounterSource {
	return &CounterSource{speed: 1, adc: 1}
}

// Speed implements Source.
func (s *CounterSource) Speed() float32 {
	s.lock.Lock()
	defer s.lock.Unlock()
	v := s.speed
	s.speed++
	return v
}

// ADC implements Source.
func (s *CounterSource) ADC() uint16 {
	s.lock.Lock()
	defer s.lock.Unlock()
	v := s.adc
	s.adc++
	return v
}
