package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"clima-data/internal/domain"

	"github.com/lib/pq"
)

// PostgresReadingsRepository 读数Repository实现
type PostgresReadingsRepository struct {
	db *sql.DB
}

// NewPostgresReadingsRepository 创建读数Repository
func NewPostgresReadingsRepository(db *sql.DB) *PostgresReadingsRepository {
	return &PostgresReadingsRepository{db: db}
}

var _ ReadingsRepository = (*PostgresReadingsRepository)(nil)

// 按列展开为数组参数，由 unnest 还原为行；整批只有一条语句
const insertReadingsSQL = `
	INSERT INTO readings (device_id, sensor_id, ts, value, channels, quality, raw_row)
	SELECT * FROM unnest(
		$1::bigint[],
		$2::bigint[],
		$3::timestamptz[],
		$4::float8[],
		$5::jsonb[],
		$6::smallint[],
		$7::text[]
	)
	ON CONFLICT (device_id, sensor_id, ts) DO NOTHING`

// InsertBatch 批量写入读数
func (r *PostgresReadingsRepository) InsertBatch(ctx context.Context, readings []domain.Reading) (int64, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	n := len(readings)
	deviceIDs := make([]int64, n)
	sensorIDs := make([]int64, n)
	timestamps := make(pq.StringArray, n)
	values := make([]float64, n)
	channels := make([]sql.NullString, n)
	qualities := make([]int64, n)
	rawRows := make([]sql.NullString, n)

	for i := range readings {
		rd := &readings[i]
		deviceIDs[i] = rd.DeviceID
		sensorIDs[i] = rd.SensorID
		timestamps[i] = rd.Timestamp.UTC().Format(time.RFC3339Nano)
		values[i] = rd.Value
		qualities[i] = int64(rd.Quality)

		if len(rd.Channels) > 0 {
			b, err := json.Marshal(rd.Channels)
			if err != nil {
				return 0, domain.WrapError(domain.KindValidation, "invalid reading channels", err)
			}
			channels[i] = sql.NullString{String: string(b), Valid: true}
		}
		if rd.RawRow != nil {
			rawRows[i] = sql.NullString{String: *rd.RawRow, Valid: true}
		}
	}

	res, err := r.db.ExecContext(ctx, insertReadingsSQL,
		pq.Array(deviceIDs),
		pq.Array(sensorIDs),
		timestamps,
		pq.Array(values),
		pq.Array(channels),
		pq.Array(qualities),
		pq.Array(rawRows),
	)
	if err != nil {
		return 0, translateError(err, "failed to insert readings")
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, translateError(err, "failed to read inserted count")
	}
	return inserted, nil
}

// ListReadings 分页导出读数
func (r *PostgresReadingsRepository) ListReadings(ctx context.Context, limit, offset int) ([]*domain.Reading, error) {
	query := `
		SELECT reading_id, device_id, sensor_id, ts, value, channels, quality, raw_row
		FROM readings
		ORDER BY ts DESC, device_id ASC, sensor_id ASC, reading_id ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, translateError(err, "failed to list readings")
	}
	defer rows.Close()

	out := []*domain.Reading{}
	for rows.Next() {
		var rd domain.Reading
		var channels []byte
		var rawRow sql.NullString

		if err := rows.Scan(
			&rd.ReadingID,
			&rd.DeviceID,
			&rd.SensorID,
			&rd.Timestamp,
			&rd.Value,
			&channels,
			&rd.Quality,
			&rawRow,
		); err != nil {
			return nil, translateError(err, "failed to scan reading")
		}

		rd.Timestamp = rd.Timestamp.UTC()
		rd.RawRow = nullString(rawRow)
		if len(channels) > 0 {
			if err := json.Unmarshal(channels, &rd.Channels); err != nil {
				return nil, translateError(fmt.Errorf("decode channels of reading %d: %w", rd.ReadingID, err), "failed to scan reading")
			}
		}
		out = append(out, &rd)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "failed to list readings")
	}
	return out, nil
}
