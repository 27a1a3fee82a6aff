package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clima-data/internal/domain"
)

// PostgresChartsRepository 图表聚合Repository实现
type PostgresChartsRepository struct {
	db *sql.DB
}

// NewPostgresChartsRepository 创建图表聚合Repository
func NewPostgresChartsRepository(db *sql.DB) *PostgresChartsRepository {
	return &PostgresChartsRepository{db: db}
}

var _ ChartsRepository = (*PostgresChartsRepository)(nil)

// 桶起点按 UTC 计算，避免会话时区影响分桶
const bucketExpr = `date_trunc($1, r.ts AT TIME ZONE 'UTC') AT TIME ZONE 'UTC'`

type bucketKey struct {
	start    time.Time
	deviceID int64
	sensorID int64
}

// chartTxOptions 两条聚合查询共用一个快照，通道统计与主值统计看到同一批读数
var chartTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// GetChartData 查询图表数据
// 主值按传感器换算后聚合；附加通道按通道名单独聚合（原始值），再合并到对应桶
func (r *PostgresChartsRepository) GetChartData(ctx context.Context, q domain.ChartQuery) ([]domain.ChartBucket, error) {
	tx, err := r.db.BeginTx(ctx, chartTxOptions)
	if err != nil {
		return nil, translateError(err, "failed to query chart data")
	}
	defer tx.Rollback()

	out, err := queryChart(ctx, tx, q)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, translateError(err, "failed to query chart data")
	}
	return out, nil
}

func queryChart(ctx context.Context, tx *sql.Tx, q domain.ChartQuery) ([]domain.ChartBucket, error) {
	where, args := buildChartFilter(q)

	query := fmt.Sprintf(`
		SELECT %s AS bucket_start,
		       r.device_id,
		       r.sensor_id,
		       s.name,
		       s.unit,
		       COUNT(*),
		       AVG(r.value * s.scale_factor + s.value_offset),
		       MIN(r.value * s.scale_factor + s.value_offset),
		       MAX(r.value * s.scale_factor + s.value_offset)
		FROM readings r
		JOIN sensors s ON s.sensor_id = r.sensor_id
		WHERE %s
		GROUP BY 1, r.device_id, r.sensor_id, s.name, s.unit
		ORDER BY 1, r.device_id, r.sensor_id`, bucketExpr, where)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "failed to query chart data")
	}
	defer rows.Close()

	out := []domain.ChartBucket{}
	index := map[bucketKey]int{}
	for rows.Next() {
		b := domain.ChartBucket{BucketWidth: q.Bucket}
		if err := rows.Scan(
			&b.BucketStart,
			&b.DeviceID,
			&b.SensorID,
			&b.SensorName,
			&b.Unit,
			&b.Count,
			&b.Avg,
			&b.Min,
			&b.Max,
		); err != nil {
			return nil, translateError(err, "failed to scan chart bucket")
		}
		b.BucketStart = b.BucketStart.UTC()
		b.BucketEnd = q.Bucket.Next(b.BucketStart)
		index[bucketKey{b.BucketStart, b.DeviceID, b.SensorID}] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "failed to query chart data")
	}
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}

	if err := mergeChannels(ctx, tx, where, args, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

// mergeChannels 聚合 channels JSONB 中的附加通道
// 与主查询同一快照，每个通道桶都能在 index 中找到
func mergeChannels(ctx context.Context, tx *sql.Tx, where string, args []interface{}, out []domain.ChartBucket, index map[bucketKey]int) error {
	query := fmt.Sprintf(`
		SELECT %s AS bucket_start,
		       r.device_id,
		       r.sensor_id,
		       c.key,
		       COUNT(*),
		       AVG(c.value::float8),
		       MIN(c.value::float8),
		       MAX(c.value::float8)
		FROM readings r
		JOIN sensors s ON s.sensor_id = r.sensor_id
		CROSS JOIN LATERAL jsonb_each_text(r.channels) AS c(key, value)
		WHERE %s
		GROUP BY 1, r.device_id, r.sensor_id, c.key
		ORDER BY 1, r.device_id, r.sensor_id, c.key`, bucketExpr, where)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return translateError(err, "failed to query chart channels")
	}
	defer rows.Close()

	for rows.Next() {
		var k bucketKey
		var name string
		var st domain.ChannelStats
		if err := rows.Scan(&k.start, &k.deviceID, &k.sensorID, &name, &st.Count, &st.Avg, &st.Min, &st.Max); err != nil {
			return translateError(err, "failed to scan chart channel")
		}
		k.start = k.start.UTC()

		i, ok := index[k]
		if !ok {
			continue
		}
		if out[i].Channels == nil {
			out[i].Channels = map[string]domain.ChannelStats{}
		}
		out[i].Channels[name] = st
	}
	if err := rows.Err(); err != nil {
		return translateError(err, "failed to query chart channels")
	}
	return nil
}

// buildChartFilter 生成 WHERE 子句与参数；$1 固定为桶粒度
func buildChartFilter(q domain.ChartQuery) (string, []interface{}) {
	args := []interface{}{string(q.Bucket), q.From.UTC(), q.To.UTC()}
	conds := []string{"r.ts >= $2", "r.ts < $3"}
	argN := 4

	if q.DeviceID != nil {
		conds = append(conds, fmt.Sprintf("r.device_id = $%d", argN))
		args = append(args, *q.DeviceID)
		argN++
	}
	if q.SensorName != nil {
		// 精确匹配，大小写敏感
		conds = append(conds, fmt.Sprintf("s.name = $%d", argN))
		args = append(args, *q.SensorName)
	}
	return strings.Join(conds, " AND "), args
}
