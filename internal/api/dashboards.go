package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/Tuncayozalici/ONERI-sub000/internal/dashboard"
)

type dashboardResponse struct {
	Data any           `json:"data"`
	Aux  dashboard.Aux `json:"aux"`
}

// ListDashboards 可用看板列表
// GET /api/dashboards
func (h *Handler) ListDashboards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": dashboard.Domains})
}

// GetDashboard 查询单个看板
// GET /api/dashboards/:domain?date=&start=&end=&month=&year=&machine=
func (h *Handler) GetDashboard(c *gin.Context) {
	req, err := parseDashboardRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, aux, err := h.dashboards.Query(c.Request.Context(), c.Param("domain"), req)
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownDomain) {
			c.JSON(http.StatusNotFound, gin.H{"error": "未知看板: " + c.Param("domain")})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dashboardResponse{Data: data, Aux: aux})
}

func parseDashboardRequest(c *gin.Context) (dashboard.Request, error) {
	var req dashboard.Request
	var err error

	if req.Date, err = queryDate(c, "date"); err != nil {
		return req, err
	}
	if req.Start, err = queryDate(c, "start"); err != nil {
		return req, err
	}
	if req.End, err = queryDate(c, "end"); err != nil {
		return req, err
	}
	if req.Month, err = queryInt(c, "month", 1, 12); err != nil {
		return req, err
	}
	if req.Year, err = queryInt(c, "year", 1900, 9999); err != nil {
		return req, err
	}
	req.Machine = strings.TrimSpace(c.Query("machine"))
	return req, nil
}

func queryDate(c *gin.Context, key string) (*civil.Date, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("参数 %s 日期格式错误（应为 YYYY-MM-DD）: %s", key, raw)
	}
	return &d, nil
}

func queryInt(c *gin.Context, key string, lo, hi int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("参数 %s 非法: %s", key, raw)
	}
	return v, nil
}
