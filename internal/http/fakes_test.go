package httpapi

import (
	"context"
	"time"

	"clima-data/internal/auth"
	"clima-data/internal/domain"
	"clima-data/internal/service"
)

type stubIdentity struct {
	lastDevice domain.DeviceUpsert
	lastSensor domain.SensorUpsert
	err        error
}

func (s *stubIdentity) UpsertDevice(ctx context.Context, in domain.DeviceUpsert) (int64, error) {
	s.lastDevice = in
	if s.err != nil {
		return 0, s.err
	}
	return 7, nil
}

func (s *stubIdentity) UpsertSensor(ctx context.Context, in domain.SensorUpsert) (int64, error) {
	s.lastSensor = in
	if s.err != nil {
		return 0, s.err
	}
	return 11, nil
}

func (s *stubIdentity) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	if id != 7 {
		return nil, domain.NewNotFoundError("device not found")
	}
	return &domain.Device{DeviceID: 7, Serial: "SN-7", Name: "roof"}, nil
}

func (s *stubIdentity) ListDevices(ctx context.Context, limit, offset int) ([]*domain.Device, error) {
	return []*domain.Device{{DeviceID: 7, Serial: "SN-7", Name: "roof"}}, nil
}

func (s *stubIdentity) GetSensor(ctx context.Context, id int64) (*domain.Sensor, error) {
	return &domain.Sensor{SensorID: id, DeviceID: 7, Name: "t", Unit: "C", ScaleFactor: 1}, nil
}

func (s *stubIdentity) ListSensorsByDevice(ctx context.Context, deviceID int64) ([]*domain.Sensor, error) {
	return []*domain.Sensor{{SensorID: 1, DeviceID: deviceID, Name: "t", Unit: "C", ScaleFactor: 1}}, nil
}

type stubIngest struct {
	got      []domain.Reading
	inserted int64
	err      error
}

func (s *stubIngest) InsertBatch(ctx context.Context, readings []domain.Reading) (int64, error) {
	s.got = readings
	return s.inserted, s.err
}

type stubCharts struct {
	got domain.ChartQuery
	out []domain.ChartBucket
	err error
}

func (s *stubCharts) GetChartData(ctx context.Context, q domain.ChartQuery) ([]domain.ChartBucket, error) {
	s.got = q
	return s.out, s.err
}

type stubRecent struct{}

func (stubRecent) Recent(ctx context.Context) (*service.RecentChart, error) {
	return &service.RecentChart{Bucket: domain.BucketHour}, nil
}

type stubExport struct {
	limit, offset int
	rows          []*domain.Reading
	err           error
}

func (s *stubExport) ExportReadings(ctx context.Context, limit, offset int) ([]*domain.Reading, error) {
	s.limit, s.offset = limit, offset
	return s.rows, s.err
}

type stubAuth struct{}

func (stubAuth) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if username == "taken" {
		return nil, domain.WrapError(domain.KindConflict, "username or email already registered", nil)
	}
	return &domain.User{UserID: 1, Username: username, Email: email, RoleID: domain.DefaultRoleID}, nil
}

func (stubAuth) Login(ctx context.Context, username, password string) (*service.Token, error) {
	if username != "ana" || password != "long-enough" {
		return nil, domain.NewUnauthorizedError("incorrect username or password")
	}
	return &service.Token{AccessToken: "good-token", TokenType: "bearer", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (stubAuth) Authenticate(token string) (*auth.Claims, error) {
	if token != "good-token" {
		return nil, domain.NewUnauthorizedError("invalid or expired token")
	}
	c := &auth.Claims{UserID: 1}
	c.Subject = "ana"
	return c, nil
}
