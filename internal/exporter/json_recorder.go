package exporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/YKarmar/ApplicationTracker/internal/types"
)

// JSONRecorder 在内存中按顺序保存结果，每追加一条就整体重写输出文件
type JSONRecorder struct {
	filename string
	report   types.Report
}

func NewJSONRecorder(filename string) *JSONRecorder {
	return &JSONRecorder{
		filename: filename,
		report:   types.Report{Applications: []types.ClassifiedEmail{}},
	}
}

// Append 追加一条记录并立即覆盖写入文件
func (r *JSONRecorder) Append(rec types.ClassifiedEmail) error {
	r.report.Applications = append(r.report.Applications, rec)
	return r.Flush()
}

// Flush 将当前全部记录写入文件
func (r *JSONRecorder) Flush() error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(r.report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := os.WriteFile(r.filename, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", r.filename, err)
	}
	return nil
}

// Records 返回已记录内容的副本
func (r *JSONRecorder) Records() []types.ClassifiedEmail {
	out := make([]types.ClassifiedEmail, len(r.report.Applications))
	copy(out, r.report.Applications)
	return out
}
