// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/shifta/shifta/internal/rules"
)

// GetRulesHandler 返回引擎支持的规则目录
func GetRulesHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rules.CatalogResponse{Rules: rules.Catalog()})
}
