package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"clima-data/internal/domain"
)

// fakeDevices 内存版 DevicesRepository
type fakeDevices struct {
	mu       sync.Mutex
	bySerial map[string]*domain.Device
	nextID   int64
	err      error
}

func newFakeDevices() *fakeDevices {
	return &fakeDevices{bySerial: map[string]*domain.Device{}}
}

func (f *fakeDevices) UpsertDevice(ctx context.Context, in domain.DeviceUpsert) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	d, ok := f.bySerial[in.Serial]
	if !ok {
		f.nextID++
		d = &domain.Device{DeviceID: f.nextID, Serial: in.Serial}
		f.bySerial[in.Serial] = d
	}
	d.Name, d.Location, d.Type, d.Firmware, d.Config = in.Name, in.Location, in.Type, in.Firmware, in.Config
	return d.DeviceID, nil
}

func (f *fakeDevices) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.bySerial {
		if d.DeviceID == id {
			return d, nil
		}
	}
	return nil, domain.NewNotFoundError(fmt.Sprintf("device %d not found", id))
}

func (f *fakeDevices) ListDevices(ctx context.Context, limit, offset int) ([]*domain.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Device{}
	for _, d := range f.bySerial {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	if offset >= len(out) {
		return []*domain.Device{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeSensors 内存版 SensorsRepository，按 (device_id, code) 合并
type fakeSensors struct {
	devices *fakeDevices
	mu      sync.Mutex
	rows    []*domain.Sensor
	calls   int
}

func (f *fakeSensors) UpsertSensor(ctx context.Context, in domain.SensorUpsert) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if _, err := f.devices.GetDevice(ctx, in.DeviceID); err != nil {
		return 0, err
	}
	scale, offset := in.Resolve()
	if in.Code != nil {
		for _, s := range f.rows {
			if s.DeviceID == in.DeviceID && s.Code != nil && *s.Code == *in.Code {
				s.Name, s.Unit, s.ScaleFactor, s.Offset = in.Name, in.Unit, scale, offset
				return s.SensorID, nil
			}
		}
	}
	s := &domain.Sensor{
		SensorID: int64(len(f.rows) + 1), DeviceID: in.DeviceID, Code: in.Code,
		Name: in.Name, Unit: in.Unit, ScaleFactor: scale, Offset: offset,
	}
	f.rows = append(f.rows, s)
	return s.SensorID, nil
}

func (f *fakeSensors) GetSensor(ctx context.Context, id int64) (*domain.Sensor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.SensorID == id {
			return s, nil
		}
	}
	return nil, domain.NewNotFoundError("sensor not found")
}

func (f *fakeSensors) ListSensorsByDevice(ctx context.Context, deviceID int64) ([]*domain.Sensor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Sensor{}
	for _, s := range f.rows {
		if s.DeviceID == deviceID {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeReadings 按自然键去重，模拟 ON CONFLICT DO NOTHING
type fakeReadings struct {
	mu       sync.Mutex
	rows     map[domain.ReadingKey]domain.Reading
	batches  [][]domain.Reading
	err      error
	deadline bool
}

func newFakeReadings() *fakeReadings {
	return &fakeReadings{rows: map[domain.ReadingKey]domain.Reading{}}
}

func (f *fakeReadings) InsertBatch(ctx context.Context, readings []domain.Reading) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.deadline = ctx.Deadline()
	f.batches = append(f.batches, readings)
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, r := range readings {
		if _, ok := f.rows[r.Key()]; ok {
			continue
		}
		f.rows[r.Key()] = r
		n++
	}
	return n, nil
}

func (f *fakeReadings) ListReadings(ctx context.Context, limit, offset int) ([]*domain.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.Reading{}
	for _, r := range f.rows {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.DeviceID != b.DeviceID {
			return a.DeviceID < b.DeviceID
		}
		return a.SensorID < b.SensorID
	})
	if offset >= len(out) {
		return []*domain.Reading{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeCharts 记录查询条件并返回固定结果
type fakeCharts struct {
	mu      sync.Mutex
	queries []domain.ChartQuery
	result  []domain.ChartBucket
	err     error
}

func (f *fakeCharts) GetChartData(ctx context.Context, q domain.ChartQuery) ([]domain.ChartBucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return f.result, f.err
}

func (f *fakeCharts) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fakeUsers 内存版 UsersRepository
type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*domain.User{}}
}

func (f *fakeUsers) CreateUser(ctx context.Context, username, email, hash string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return nil, domain.WrapError(domain.KindConflict, "username or email already registered", nil)
		}
	}
	u := &domain.User{
		UserID: int64(len(f.users) + 1), Username: username, Email: email,
		PasswordHash: hash, RoleID: domain.DefaultRoleID, CreatedAt: time.Now(),
	}
	f.users[username] = u
	return u, nil
}

func (f *fakeUsers) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, domain.NewNotFoundError("user not found")
}

// countingTrigger 统计 Trigger 次数
type countingTrigger struct {
	mu sync.Mutex
	n  int
}

func (c *countingTrigger) Trigger() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingTrigger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
