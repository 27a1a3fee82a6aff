package repository

import (
	"context"
	"database/sql"
	"fmt"

	"clima-data/internal/domain"
)

// PostgresSensorsRepository 传感器Repository实现
type PostgresSensorsRepository struct {
	db *sql.DB
}

// NewPostgresSensorsRepository 创建传感器Repository
func NewPostgresSensorsRepository(db *sql.DB) *PostgresSensorsRepository {
	return &PostgresSensorsRepository{db: db}
}

var _ SensorsRepository = (*PostgresSensorsRepository)(nil)

const sensorColumns = `sensor_id, device_id, code, name, unit, scale_factor, value_offset, range_min, range_max`

const insertSensorSQL = `
	INSERT INTO sensors (device_id, code, name, unit, scale_factor, value_offset, range_min, range_max)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// UpsertSensor 插入或更新传感器
// 设备是否存在由外键约束判断，不做单独的存在性查询
func (r *PostgresSensorsRepository) UpsertSensor(ctx context.Context, in domain.SensorUpsert) (int64, error) {
	scale, offset := in.Resolve()

	query := insertSensorSQL
	if in.Code != nil {
		query += `
	ON CONFLICT (device_id, code)
	DO UPDATE SET name = EXCLUDED.name,
	              unit = EXCLUDED.unit,
	              scale_factor = EXCLUDED.scale_factor,
	              value_offset = EXCLUDED.value_offset,
	              range_min = EXCLUDED.range_min,
	              range_max = EXCLUDED.range_max,
	              updated_at = now()`
	}
	query += `
	RETURNING sensor_id`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		in.DeviceID,
		in.Code,
		in.Name,
		in.Unit,
		scale,
		offset,
		in.RangeMin,
		in.RangeMax,
	).Scan(&id); err != nil {
		if isForeignKeyViolation(err) {
			return 0, domain.WrapError(domain.KindNotFound, fmt.Sprintf("device %d not found", in.DeviceID), err)
		}
		return 0, translateError(err, "failed to upsert sensor")
	}
	return id, nil
}

// GetSensor 按 id 查询传感器
func (r *PostgresSensorsRepository) GetSensor(ctx context.Context, sensorID int64) (*domain.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE sensor_id = $1`

	s, err := scanSensor(r.db.QueryRowContext(ctx, query, sensorID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError(fmt.Sprintf("sensor %d not found", sensorID))
		}
		return nil, translateError(err, "failed to get sensor")
	}
	return s, nil
}

// ListSensorsByDevice 查询设备下的全部传感器（按 sensor_id 升序）
func (r *PostgresSensorsRepository) ListSensorsByDevice(ctx context.Context, deviceID int64) ([]*domain.Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE device_id = $1 ORDER BY sensor_id`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, translateError(err, "failed to list sensors")
	}
	defer rows.Close()

	out := []*domain.Sensor{}
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan sensor")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "failed to list sensors")
	}
	return out, nil
}

func scanSensor(row rowScanner) (*domain.Sensor, error) {
	var s domain.Sensor
	var code sql.NullString
	var rangeMin, rangeMax sql.NullFloat64

	if err := row.Scan(
		&s.SensorID,
		&s.DeviceID,
		&code,
		&s.Name,
		&s.Unit,
		&s.ScaleFactor,
		&s.Offset,
		&rangeMin,
		&rangeMax,
	); err != nil {
		return nil, err
	}

	s.Code = nullString(code)
	s.RangeMin = nullFloat(rangeMin)
	s.RangeMax = nullFloat(rangeMax)
	return &s, nil
}
