package seed

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/sysu-ecnc-dev/route-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/repository"
	"github.com/sysu-ecnc-dev/route-planner/backend/internal/utils"
)

// 数据文件的表头，坐标来源于校园平面图，单位为米
var requiredHeaders = []string{"名称", "横坐标", "纵坐标"}

func SeedRealData(r *repository.Repository) {
	file, err := os.Open("./internal/seed/data/waypoints.csv")
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// 读取表头
	headers, err := reader.Read()
	if err != nil {
		slog.Error("读取表头失败", "error", err)
		return
	}

	columnIndex := make(map[string]int)
	for i, header := range headers {
		columnIndex[header] = i
	}

	for _, header := range requiredHeaders {
		if !slices.Contains(headers, header) {
			slog.Error("没有找到数据列", "header", header)
			return
		}
	}

	// 读取数据
	waypoints := make([]domain.Waypoint, 0)
	for {
		row, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			slog.Error("读取文件失败", "error", err)
			return
		}

		name := row[columnIndex["名称"]]
		if name == "" {
			slog.Error("点位名称为空，跳过该行", "row", row)
			continue
		}

		x, err := strconv.ParseFloat(row[columnIndex["横坐标"]], 64)
		if err != nil {
			slog.Error("转换横坐标失败", "name", name, "error", err)
			continue
		}

		y, err := strconv.ParseFloat(row[columnIndex["纵坐标"]], 64)
		if err != nil {
			slog.Error("转换纵坐标失败", "name", name, "error", err)
			continue
		}

		waypoints = append(waypoints, domain.Waypoint{
			Name: name,
			X:    x,
			Y:    y,
		})
	}

	if len(waypoints) < 2 {
		slog.Error("数据文件中的有效点位不足", "count", len(waypoints))
		return
	}

	// 插入点位集
	ws := &domain.WaypointSet{
		Name:        "南校园巡检点位",
		Description: "根据校园平面图整理的南校园主要建筑巡检点位",
		Waypoints:   waypoints,
	}

	if err := utils.ValidateWaypointSetPoints(ws); err != nil {
		slog.Error("点位数据不合法", "error", err)
		return
	}

	if err := r.CreateWaypointSet(ws); err != nil {
		slog.Error("插入点位集失败", "error", err)
		return
	}

	slog.Info("插入数据完成", "waypointSetID", ws.ID, "count", len(waypoints))
}
