package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"

	"github.com/YKarmar/ApplicationTracker/internal/types"
)

// CSV导出器
type CSVExporter struct {
	filename string
}

// 创建CSV导出器
func NewCSVExporter(filename string) *CSVExporter {
	return &CSVExporter{
		filename: filename,
	}
}

// 导出分类结果到CSV文件
func (ce *CSVExporter) Export(records []types.ClassifiedEmail) error {
	file, err := os.Create(ce.filename)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write([]string{"company", "status", "date"}); err != nil {
		return fmt.Errorf("write CSV headers: %w", err)
	}

	for _, rec := range records {
		if err := writer.Write([]string{rec.Company, string(rec.Status), rec.Date}); err != nil {
			return fmt.Errorf("write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}
	return nil
}

// 未命中任何关键词的记录在统计中的状态名
const Unclassified = "unclassified"

type CompanyCount struct {
	Company string
	Count   int
}

type Statistics struct {
	Total        int
	ByStatus     map[string]int
	TopCompanies []CompanyCount
}

// Summarize 统计各状态数量和出现最多的公司（前 limit 名）
func Summarize(records []types.ClassifiedEmail, limit int) Statistics {
	stats := Statistics{
		Total:    len(records),
		ByStatus: make(map[string]int),
	}

	companyCount := make(map[string]int)
	for _, rec := range records {
		status := string(rec.Status)
		if status == "" {
			status = Unclassified
		}
		stats.ByStatus[status]++
		if rec.Company != "" {
			companyCount[rec.Company]++
		}
	}

	for company, count := range companyCount {
		stats.TopCompanies = append(stats.TopCompanies, CompanyCount{company, count})
	}
	sort.Slice(stats.TopCompanies, func(i, j int) bool {
		a, b := stats.TopCompanies[i], stats.TopCompanies[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Company < b.Company
	})
	if limit > 0 && len(stats.TopCompanies) > limit {
		stats.TopCompanies = stats.TopCompanies[:limit]
	}

	return stats
}
