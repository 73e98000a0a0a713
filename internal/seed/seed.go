package seed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/repository"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/roster"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/utils"
)

// SeedEfficiency 把效率表文件导入数据库，覆盖原有的效率表
func SeedEfficiency(r *repository.Repository, path string) (*catalog.Catalog, error) {
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}

	if err := r.ReplaceEfficiencyEntries(cat.Entries()); err != nil {
		return nil, fmt.Errorf("写入效率表失败: %w", err)
	}

	slog.Info("导入效率表完成", "file", path, "version", cat.Version(), "size", cat.Size())
	return cat, nil
}

// WriteRandomRosters 根据效率表中的干员随机生成 count 份 MAA 格式的干员数据，返回写入的文件路径
func WriteRandomRosters(cat *catalog.Catalog, dir string, count int, ownRate float64) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	ids := cat.WorkerIDs()
	paths := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		workers := utils.GenerateRandomRoster(ids, ownRate)
		roster.SortByName(workers)

		data, err := roster.Marshal(workers)
		if err != nil {
			return paths, err
		}

		path := filepath.Join(dir, fmt.Sprintf("operators_%03d.json", i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}

	slog.Info("生成随机干员数据完成", "dir", dir, "count", len(paths))
	return paths, nil
}
