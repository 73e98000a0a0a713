package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/catalog"
	"github.com/sysu-ecnc-dev/riic-scheduler/backend/internal/domain"
)

type CatalogInfo struct {
	Version  string           `json:"version"`
	Size     int              `json:"size"`
	Products []domain.Product `json:"products"`
}

func catalogInfo(cat *catalog.Catalog) CatalogInfo {
	return CatalogInfo{
		Version:  cat.Version(),
		Size:     cat.Size(),
		Products: cat.Products(),
	}
}

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "获取效率表信息成功", catalogInfo(h.optimizer.Load().Catalog()))
}

// ReplaceCatalog 用请求体中的效率表 JSON 整体替换数据库中的效率表，并立即生效
func (h *Handler) ReplaceCatalog(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorResponse(w, r, "效率表过大")
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	cat, err := catalog.Load(data)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.ReplaceEfficiencyEntries(cat.Entries()); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 缓存键包含效率表版本，旧的缓存不会再被命中
	h.optimizer.Store(h.optimizer.Load().WithCatalog(cat))
	slog.Info("效率表已更新", "version", cat.Version(), "size", cat.Size())

	h.successResponse(w, r, "效率表更新成功", catalogInfo(cat))
}
