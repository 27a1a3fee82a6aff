package httpapi

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"clima-data/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ReadingsExportHeader 导出列（CSV 与 XLSX 共用）
var ReadingsExportHeader = []string{
	"reading_id",
	"timestamp",
	"value",
	"quality",
	"device_id",
	"sensor_id",
}

const readingsSheetName = "Lecturas"

// readingRecord 单行导出值（字符串形式，CSV 直接使用）
func readingRecord(rd *domain.Reading) []string {
	return []string{
		strconv.FormatInt(rd.ReadingID, 10),
		rd.Timestamp.UTC().Format(time.RFC3339Nano),
		strconv.FormatFloat(rd.Value, 'f', -1, 64),
		strconv.Itoa(rd.Quality),
		strconv.FormatInt(rd.DeviceID, 10),
		strconv.FormatInt(rd.SensorID, 10),
	}
}

// GenerateReadingsExcel 生成读数导出 Excel 文件；rows 为空时只有表头
func GenerateReadingsExcel(rows []*domain.Reading) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(readingsSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sw, err := f.NewStreamWriter(readingsSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}

	widths := []float64{14, 32, 14, 10, 12, 12}
	for i, width := range widths {
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	header := make([]interface{}, len(ReadingsExportHeader))
	for i, h := range ReadingsExportHeader {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, rd := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		// 时间写成 RFC3339 文本，避免 Excel 按本地时区显示
		row := []interface{}{
			rd.ReadingID,
			rd.Timestamp.UTC().Format(time.RFC3339Nano),
			rd.Value,
			rd.Quality,
			rd.DeviceID,
			rd.SensorID,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	return buf.Bytes(), nil
}
