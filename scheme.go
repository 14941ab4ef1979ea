package springls

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// MotionScheme selects how the surface representations are moved.
type MotionScheme int

const (
	// SemiImplicit moves the constellation and pulls the signed grid
	// toward it after every substep.
	SemiImplicit MotionScheme = iota
	// Explicit moves the constellation and the iso-surface and rebuilds
	// the signed grid from them once per Advect call.
	Explicit
	// Implicit moves only the signed grid. The constellation is discarded.
	Implicit
)

func (m MotionScheme) String() string {
	switch m {
	case SemiImplicit:
		return "semi-implicit"
	case Explicit:
		return "explicit"
	case Implicit:
		return "implicit"
	}
	return fmt.Sprintf("MotionScheme(%d)", int(m))
}

// ParseMotionScheme parses the names returned by String. Case and the
// separator of semi-implicit are ignored.
func ParseMotionScheme(s string) (MotionScheme, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "semi-implicit", "semiimplicit":
		return SemiImplicit, nil
	case "explicit":
		return Explicit, nil
	case "implicit":
		return Implicit, nil
	}
	return 0, fmt.Errorf("springls: unknown motion scheme %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m MotionScheme) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MotionScheme) UnmarshalText(b []byte) error {
	v, err := ParseMotionScheme(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// TemporalScheme is an explicit Runge-Kutta integrator.
type TemporalScheme int

const (
	// RK4b is the fourth order 3/8 rule. It is the zero value.
	RK4b TemporalScheme = iota
	// RK1 is forward Euler.
	RK1
	// RK2 is the midpoint method.
	RK2
	// RK3 is Kutta's third order method.
	RK3
	// RK4a is the classic fourth order method.
	RK4a
)

var temporalNames = [...]string{RK4b: "rk4b", RK1: "rk1", RK2: "rk2", RK3: "rk3", RK4a: "rk4a"}

func (ts TemporalScheme) String() string {
	if ts >= 0 && int(ts) < len(temporalNames) {
		return temporalNames[ts]
	}
	return fmt.Sprintf("TemporalScheme(%d)", int(ts))
}

// ParseTemporalScheme parses the names returned by String ignoring case.
func ParseTemporalScheme(s string) (TemporalScheme, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for ts, n := range temporalNames {
		if n == name {
			return TemporalScheme(ts), nil
		}
	}
	return 0, fmt.Errorf("springls: unknown temporal scheme %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (ts TemporalScheme) MarshalText() ([]byte, error) { return []byte(ts.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *TemporalScheme) UnmarshalText(b []byte) error {
	v, err := ParseTemporalScheme(string(b))
	if err != nil {
		return err
	}
	*ts = v
	return nil
}

// Integrate returns the position reached from p after moving for dt along
// the velocity field v starting at time t.
func (ts TemporalScheme) Integrate(v func(p r3.Vec, t float64) r3.Vec, p r3.Vec, t, dt float64) r3.Vec {
	at := func(k r3.Vec, h float64) r3.Vec { return r3.Add(p, r3.Scale(h, k)) }
	k1 := v(p, t)
	switch ts {
	case RK1:
		return at(k1, dt)
	case RK2:
		k2 := v(at(k1, dt/2), t+dt/2)
		return at(k2, dt)
	case RK3:
		k2 := v(at(k1, dt/2), t+dt/2)
		k3 := v(r3.Add(at(k1, -dt), r3.Scale(2*dt, k2)), t+dt)
		return at(r3.Add(r3.Add(k1, r3.Scale(4, k2)), k3), dt/6)
	case RK4a:
		k2 := v(at(k1, dt/2), t+dt/2)
		k3 := v(at(k2, dt/2), t+dt/2)
		k4 := v(at(k3, dt), t+dt)
		sum := r3.Add(r3.Add(k1, r3.Scale(2, k2)), r3.Add(r3.Scale(2, k3), k4))
		return at(sum, dt/6)
	case RK4b:
		k2 := v(at(k1, dt/3), t+dt/3)
		k3 := v(r3.Add(at(k1, -dt/3), r3.Scale(dt, k2)), t+2*dt/3)
		k4 := v(at(r3.Add(r3.Sub(k1, k2), k3), dt), t+dt)
		sum := r3.Add(r3.Add(k1, r3.Scale(3, k2)), r3.Add(r3.Scale(3, k3), k4))
		return at(sum, dt/8)
	}
	panic("springls: invalid temporal scheme " + ts.String())
}
