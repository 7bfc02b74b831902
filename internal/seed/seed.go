package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/bishwashp/shiftplanner/backend/internal/domain"
	"github.com/bishwashp/shiftplanner/backend/internal/utils"
)

type Store interface {
	CreateAnalyst(analyst *domain.Analyst) error
}

// 表头 -> 是否必填
var analystHeaders = map[string]bool{
	"姓名": true,
	"班次": true,
	"区域": false,
	"技能": false,
}

var shiftHeaderMap = map[string]domain.ShiftType{
	"早班":      domain.ShiftMorning,
	"晚班":      domain.ShiftEvening,
	"MORNING": domain.ShiftMorning,
	"EVENING": domain.ShiftEvening,
}

func SeedAnalystsFromCSV(s Store, path string) {
	file, err := os.Open(path)
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	cnt, err := ImportAnalysts(s, file)
	if err != nil {
		slog.Error("导入分析师失败", "error", err, "count", cnt)
		return
	}

	slog.Info("导入分析师成功", "count", cnt)
}

// ImportAnalysts 读取 CSV（表头：姓名,班次,区域,技能），技能用 | 分隔，用户名由姓名的拼音生成
func ImportAnalysts(s Store, r io.Reader) (int, error) {
	reader := csv.NewReader(r)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	for header, required := range analystHeaders {
		if required && !slices.Contains(headers, header) {
			return 0, fmt.Errorf("没有找到 %s 列", header)
		}
	}

	cnt := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return cnt, fmt.Errorf("读取第 %d 行失败: %w", line, err)
		}

		record := make(map[string]string)
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}

		analyst, err := parseAnalyst(record)
		if err != nil {
			return cnt, fmt.Errorf("第 %d 行: %w", line, err)
		}

		if err := s.CreateAnalyst(analyst); err != nil {
			return cnt, fmt.Errorf("第 %d 行插入失败: %w", line, err)
		}
		cnt++
	}

	return cnt, nil
}

func parseAnalyst(record map[string]string) (*domain.Analyst, error) {
	fullName := record["姓名"]
	if fullName == "" {
		return nil, errors.New("姓名不能为空")
	}

	shift, ok := shiftHeaderMap[record["班次"]]
	if !ok {
		return nil, fmt.Errorf("无效的班次 %q", record["班次"])
	}

	analyst := &domain.Analyst{
		Username:  utils.GenerateUsernameFromChineseName(fullName),
		FullName:  fullName,
		ShiftType: shift,
		Skills:    []string{},
		IsActive:  true,
	}

	if region := record["区域"]; region != "" {
		regionID, err := strconv.ParseInt(region, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("无效的区域 %q", region)
		}
		analyst.RegionID = &regionID
	}

	if skills := record["技能"]; skills != "" {
		for _, skill := range strings.Split(skills, "|") {
			if skill = strings.TrimSpace(skill); skill != "" {
				analyst.Skills = append(analyst.Skills, skill)
			}
		}
	}

	return analyst, nil
}
