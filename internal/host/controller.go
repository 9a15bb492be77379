package host

import (
	"context"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/envsensor"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/ports"
)

// Controller implements ports.SensorController by running every call on a Loop
type Controller struct {
	loop   *Loop
	sensor *envsensor.EnvSensor
}

// NewController wraps sensor; sensor must only be touched through loop afterwards
func NewController(loop *Loop, sensor *envsensor.EnvSensor) *Controller {
	return &Controller{loop: loop, sensor: sensor}
}

func (c *Controller) Snapshot(ctx context.Context) (ports.Snapshot, error) {
	var snap ports.Snapshot
	err := c.loop.Do(ctx, func() {
		snap = c.sensor.Snapshot()
	})
	return snap, err
}

func (c *Controller) SetEnabled(ctx context.Context, enabled bool) (ports.Snapshot, error) {
	var snap ports.Snapshot
	err := c.loop.Do(ctx, func() {
		c.sensor.SetEnabled(enabled)
		snap = c.sensor.Snapshot()
	})
	return snap, err
}

func (c *Controller) Inject(ctx context.Context, value float64) (bool, error) {
	var accepted bool
	err := c.loop.Do(ctx, func() {
		accepted = c.sensor.Inject(value)
	})
	return accepted, err
}

// Resume forwards the host resume signal
func (c *Controller) Resume(ctx context.Context) error {
	return c.loop.Do(ctx, c.sensor.OnResume)
}

// Stop forwards the host stop signal
func (c *Controller) Stop(ctx context.Context) error {
	return c.loop.Do(ctx, c.sensor.OnStop)
}

// Delete tears the component down. The controller must not be used afterwards.
func (c *Controller) Delete(ctx context.Context) error {
	return c.loop.Do(ctx, c.sensor.OnDelete)
}
