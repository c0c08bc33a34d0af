package clock

import "time"

// Clock abstrai o relógio de parede para que motores possam ser testados
type Clock interface {
	Now() time.Time
}

// System usa time.Now em UTC
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }
