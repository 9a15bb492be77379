package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/host"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/ports"
	"github.com/quentinrf/plant-monitor/services/envsensor/pkg/sensorpb"
)

var _ sensorpb.SensorServiceServer = (*SensorServiceHandler)(nil)

// SensorServiceHandler implements the gRPC SensorService
type SensorServiceHandler struct {
	repo   domain.ReadingRepository
	sensor ports.SensorController
}

// NewSensorServiceHandler creates a new gRPC handler
func NewSensorServiceHandler(repo domain.ReadingRepository, sensor ports.SensorController) *SensorServiceHandler {
	return &SensorServiceHandler{
		repo:   repo,
		sensor: sensor,
	}
}

// GetState returns the component state and its current moving average
func (h *SensorServiceHandler) GetState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	log.Debug().Msg("GetState called")

	snap, err := h.sensor.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to read sensor state")
		return nil, controllerError(err)
	}
	return snapshotToStruct(snap)
}

// SetEnabled turns sample delivery on or off
func (h *SensorServiceHandler) SetEnabled(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	log.Info().Bool("enabled", req.GetValue()).Msg("SetEnabled called")

	snap, err := h.sensor.SetEnabled(ctx, req.GetValue())
	if err != nil {
		log.Error().Err(err).Msg("failed to set enabled")
		return nil, controllerError(err)
	}
	return snapshotToStruct(snap)
}

// GetAverage returns the moving average of recent raw samples
func (h *SensorServiceHandler) GetAverage(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.DoubleValue, error) {
	snap, err := h.sensor.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to read sensor state")
		return nil, controllerError(err)
	}
	return wrapperspb.Double(snap.Value), nil
}

// InjectSample delivers a raw sample as if it came from the host (useful for testing)
func (h *SensorServiceHandler) InjectSample(ctx context.Context, req *wrapperspb.DoubleValue) (*wrapperspb.BoolValue, error) {
	log.Info().Float64("value", req.GetValue()).Msg("InjectSample called")

	accepted, err := h.sensor.Inject(ctx, req.GetValue())
	if err != nil {
		log.Error().Err(err).Msg("failed to inject sample")
		return nil, controllerError(err)
	}
	return wrapperspb.Bool(accepted), nil
}

// GetHistory returns recorded readings within time range with statistics
func (h *SensorServiceHandler) GetHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	startField, okStart := fields["start_time"]
	endField, okEnd := fields["end_time"]
	if !okStart || !okEnd {
		return nil, status.Error(codes.InvalidArgument, "start_time and end_time are required")
	}

	start := time.Unix(int64(startField.GetNumberValue()), 0)
	end := time.Unix(int64(endField.GetNumberValue()), 0)
	if !end.After(start) {
		return nil, status.Error(codes.InvalidArgument, "end_time must be after start_time")
	}

	log.Info().
		Time("start", start).
		Time("end", end).
		Msg("GetHistory called")

	readings, err := h.repo.GetReadingsInRange(ctx, start, end)
	if err != nil {
		log.Error().Err(err).Msg("failed to get readings")
		return nil, status.Error(codes.Internal, "failed to get readings")
	}

	list := make([]interface{}, len(readings))
	for i, r := range readings {
		list[i] = readingToMap(r)
	}

	stats := calculateStatistics(readings)

	resp, err := structpb.NewStruct(map[string]interface{}{
		"readings":      list,
		"average_value": stats.average,
		"min_value":     stats.min,
		"max_value":     stats.max,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode history")
		return nil, status.Error(codes.Internal, "failed to encode history")
	}
	return resp, nil
}

func snapshotToStruct(snap ports.Snapshot) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"id":          snap.ID,
		"sensor_type": snap.SensorType.String(),
		"unit":        snap.SensorType.Unit(),
		"enabled":     snap.Enabled,
		"state":       snap.State,
		"available":   snap.Available,
		"value":       snap.Value,
		"samples":     snap.Samples,
		"accuracy":    snap.Accuracy,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to encode state")
		return nil, status.Error(codes.Internal, "failed to encode state")
	}
	return s, nil
}

// readingToMap converts a domain reading to a structpb-compatible map
func readingToMap(r *domain.Reading) map[string]interface{} {
	m := map[string]interface{}{
		"id":          r.ID,
		"sensor_type": r.SensorType.String(),
		"value":       r.Value,
		"timestamp":   r.Timestamp.Unix(),
	}
	if c := r.Category(); c != "" {
		m["category"] = c
	}
	return m
}

func controllerError(err error) error {
	switch {
	case errors.Is(err, host.ErrLoopStopped):
		return status.Error(codes.Unavailable, "sensor host stopped")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, "sensor request failed")
}

// statistics holds calculated statistics
type statistics struct {
	average float64
	min     float64
	max     float64
}

// calculateStatistics computes stats for a set of readings
func calculateStatistics(readings []*domain.Reading) statistics {
	if len(readings) == 0 {
		return statistics{}
	}

	var sum float64
	min := readings[0].Value
	max := readings[0].Value

	for _, r := range readings {
		sum += r.Value
		if r.Value < min {
			min = r.Value
		}
		if r.Value > max {
			max = r.Value
		}
	}

	return statistics{
		average: sum / float64(len(readings)),
		min:     min,
		max:     max,
	}
}
