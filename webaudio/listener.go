package webaudio

import (
	"github.com/cwbudde/algo-webaudio/dsp/spatial"
)

// Listener is the single point of view of a context. Each vector is both a
// set of three AudioParams and a method setter; for each component the most
// recent write wins.
type Listener struct {
	position *vecParam
	forward  *vecParam
	up       *vecParam

	// render thread only
	pose spatial.Pose
}

func newListener(ctx *Context) *Listener {
	def := spatial.DefaultPose()
	return &Listener{
		position: newVecParam(&ctx.clock, "position", def.Position),
		forward:  newVecParam(&ctx.clock, "forward", def.Forward),
		up:       newVecParam(&ctx.clock, "up", def.Up),
		pose:     def,
	}
}

// SetPosition moves the listener.
func (l *Listener) SetPosition(x, y, z float64) error {
	v := spatial.Vec3{X: x, Y: y, Z: z}
	if !v.IsFinite() {
		return configError("listener position must be finite, got %v", v)
	}
	l.position.set(v)
	return nil
}

// SetOrientation sets the forward and up vectors. They must not be parallel.
func (l *Listener) SetOrientation(fx, fy, fz, ux, uy, uz float64) error {
	f := spatial.Vec3{X: fx, Y: fy, Z: fz}
	u := spatial.Vec3{X: ux, Y: uy, Z: uz}
	if !f.IsFinite() || !u.IsFinite() {
		return configError("listener orientation must be finite")
	}
	if f.Cross(u).IsZero() {
		return configError("listener forward %v and up %v are parallel or zero", f, u)
	}
	l.forward.set(f)
	l.up.set(u)
	return nil
}

// PositionX is the x component of the listener position.
func (l *Listener) PositionX() *AudioParam { return l.position.x }

// PositionY is the y component of the listener position.
func (l *Listener) PositionY() *AudioParam { return l.position.y }

// PositionZ is the z component of the listener position.
func (l *Listener) PositionZ() *AudioParam { return l.position.z }

// ForwardX is the x component of the listener forward vector.
func (l *Listener) ForwardX() *AudioParam { return l.forward.x }

// ForwardY is the y component of the listener forward vector.
func (l *Listener) ForwardY() *AudioParam { return l.forward.y }

// ForwardZ is the z component of the listener forward vector.
func (l *Listener) ForwardZ() *AudioParam { return l.forward.z }

// UpX is the x component of the listener up vector.
func (l *Listener) UpX() *AudioParam { return l.up.x }

// UpY is the y component of the listener up vector.
func (l *Listener) UpY() *AudioParam { return l.up.y }

// UpZ is the z component of the listener up vector.
func (l *Listener) UpZ() *AudioParam { return l.up.z }

// Pose returns the listener pose as the next quantum will see it.
func (l *Listener) Pose() spatial.Pose {
	return spatial.Pose{
		Position: l.position.value(),
		Forward:  l.forward.value(),
		Up:       l.up.value(),
	}
}

// snapshot latches the pose for the coming quantum. A pose assembled from
// param writes that leaves forward and up parallel keeps the last valid
// orientation.
func (l *Listener) snapshot() {
	l.position.snapshot()
	l.forward.snapshot()
	l.up.snapshot()

	next := spatial.Pose{
		Position: l.position.current,
		Forward:  l.forward.current,
		Up:       l.up.current,
	}
	if next.Valid() {
		l.pose = next
		return
	}
	if next.Position.IsFinite() {
		l.pose.Position = next.Position
	}
}
