package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"clima-data/internal/domain"
)

// PostgresDevicesRepository 设备Repository实现
type PostgresDevicesRepository struct {
	db *sql.DB
}

// NewPostgresDevicesRepository 创建设备Repository
func NewPostgresDevicesRepository(db *sql.DB) *PostgresDevicesRepository {
	return &PostgresDevicesRepository{db: db}
}

// 确保实现了接口
var _ DevicesRepository = (*PostgresDevicesRepository)(nil)

const deviceColumns = `device_id, serial, name, location, device_type, firmware, config, created_at, updated_at`

// UpsertDevice 单条 INSERT ... ON CONFLICT (serial) DO UPDATE，避免先查后写的竞态
func (r *PostgresDevicesRepository) UpsertDevice(ctx context.Context, in domain.DeviceUpsert) (int64, error) {
	config, err := encodeConfig(in.Config)
	if err != nil {
		return 0, domain.WrapError(domain.KindValidation, "config is not a valid JSON document", err)
	}

	query := `
		INSERT INTO devices (serial, name, location, device_type, firmware, config)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		ON CONFLICT (serial)
		DO UPDATE SET name = EXCLUDED.name,
		              location = EXCLUDED.location,
		              device_type = EXCLUDED.device_type,
		              firmware = EXCLUDED.firmware,
		              config = EXCLUDED.config,
		              updated_at = now()
		RETURNING device_id
	`

	var id int64
	if err := r.db.QueryRowContext(ctx, query,
		in.Serial,
		in.Name,
		in.Location,
		in.Type,
		in.Firmware,
		config,
	).Scan(&id); err != nil {
		return 0, translateError(err, "failed to upsert device")
	}
	return id, nil
}

// GetDevice 按 id 查询设备
func (r *PostgresDevicesRepository) GetDevice(ctx context.Context, deviceID int64) (*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE device_id = $1`

	d, err := scanDevice(r.db.QueryRowContext(ctx, query, deviceID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewNotFoundError(fmt.Sprintf("device %d not found", deviceID))
		}
		return nil, translateError(err, "failed to get device")
	}
	return d, nil
}

// ListDevices 分页查询设备（按 device_id 升序）
func (r *PostgresDevicesRepository) ListDevices(ctx context.Context, limit, offset int) ([]*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY device_id LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, translateError(err, "failed to list devices")
	}
	defer rows.Close()

	out := []*domain.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan device")
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "failed to list devices")
	}
	return out, nil
}

// rowScanner 兼容 *sql.Row 与 *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*domain.Device, error) {
	var d domain.Device
	var location, deviceType, firmware sql.NullString
	var config []byte

	if err := row.Scan(
		&d.DeviceID,
		&d.Serial,
		&d.Name,
		&location,
		&deviceType,
		&firmware,
		&config,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}

	d.Location = nullString(location)
	d.Type = nullString(deviceType)
	d.Firmware = nullString(firmware)

	cfg, err := decodeConfig(config)
	if err != nil {
		return nil, err
	}
	d.Config = cfg
	return &d, nil
}

// encodeConfig 配置文档原文写入；空或 JSON null 写入 SQL NULL
// 不做反序列化，大整数与高精度小数由 JSONB numeric 原样保存
func encodeConfig(cfg json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(cfg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("config is not valid JSON")
	}
	return string(trimmed), nil
}

// decodeConfig JSONB 原文；NULL 或 JSON null 返回 nil
func decodeConfig(raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("failed to decode device config: invalid JSON")
	}
	return json.RawMessage(trimmed), nil
}
